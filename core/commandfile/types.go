// Package commandfile implements C3: loading, verifying, and registering
// signed command artifacts against the management database and the
// command-history file-system layout (spec.md §4.2, §4.3).
package commandfile

// Type is one of the seven command artifact kinds.
type Type string

const (
	TypeTrust      Type = "trust"
	TypeTechnical  Type = "technical"
	TypeElection   Type = "election"
	TypeChoices    Type = "choices"
	TypeDistricts  Type = "districts"
	TypeVoters     Type = "voters"
	TypeUser       Type = "user"
)

// CfgTypes are the six-artifact config family's three YAML schemas,
// database-backed under the "config" section.
var CfgTypes = map[Type]string{
	TypeTrust:     "trust root configuration",
	TypeElection:  "elections configuration",
	TypeTechnical: "collectors technical configuration",
}

// VotingListTypes are registered under the "list" section.
var VotingListTypes = map[Type]string{
	TypeChoices:   "choices list",
	TypeDistricts: "districts list",
	TypeVoters:    "voters list",
}

// Descriptions is the full catalog of human-readable artifact names.
var Descriptions = map[Type]string{
	TypeUser: "user permissions configuration",
}

func init() {
	for t, d := range CfgTypes {
		Descriptions[t] = d
	}
	for t, d := range VotingListTypes {
		Descriptions[t] = d
	}
}

// Types lists every known command type, in the order CLI usage strings
// present them.
var Types = []Type{
	TypeElection, TypeTechnical, TypeTrust, TypeChoices, TypeDistricts,
	TypeVoters, TypeUser,
}

// Valid reports whether t is a known command type.
func Valid(t Type) bool {
	_, ok := Descriptions[t]
	return ok
}

// IsCfgType reports whether t is one of the three schema-config types.
func IsCfgType(t Type) bool { _, ok := CfgTypes[t]; return ok }

// IsVotingListType reports whether t is one of the three voting-list types.
func IsVotingListType(t Type) bool { _, ok := VotingListTypes[t]; return ok }

// Permission is the access-control token required to load a command type.
type Permission string

const (
	PermissionTechConf     Permission = "TECH_CONF"
	PermissionElectionConf Permission = "ELECTION_CONF"
	PermissionUsersAdmin   Permission = "USERS_ADMIN"
)

// RequiredPermission maps a command type to the permission a signer must
// hold, per spec.md §4.3 step 3. Trust commands are authorized against the
// container's own authorizations list, not the database, and so have no
// entry here.
func RequiredPermission(t Type) Permission {
	switch t {
	case TypeTechnical:
		return PermissionTechConf
	case TypeUser:
		return PermissionUsersAdmin
	default:
		return PermissionElectionConf
	}
}
