package configschema

import (
	"encoding/json"
	"regexp"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// Roles is the closed set of permission roles (original's USER_ROLES).
var Roles = map[string]bool{
	"none":          true,
	"admin":         true,
	"TECH_CONF":     true,
	"ELECTION_CONF": true,
	"USERS_ADMIN":   true,
}

var userCNRe = regexp.MustCompile(`^.+,.+,[0-9]{11}$`)

// UserPermissionsConfig is the user-permission-update command payload
// (spec.md §4.2, §4.3 "user" effect).
type UserPermissionsConfig struct {
	Action string   `json:"action" validate:"required,eq=user-permissions"`
	CN     string   `json:"cn" validate:"required"`
	Roles  []string `json:"roles" validate:"required"`
}

// ParseUserPermissions decodes and validates a user-permission command payload.
func ParseUserPermissions(raw []byte) (*UserPermissionsConfig, error) {
	var c UserPermissionsConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid JSON: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	if !userCNRe.MatchString(c.CN) {
		return nil, ivxverr.NewValidation("/cn", "invalid CN: %s", c.CN)
	}
	seen := map[string]bool{}
	for _, r := range c.Roles {
		if !Roles[r] {
			return nil, ivxverr.NewValidation("/roles", "unknown role %q", r)
		}
		if seen[r] {
			return nil, ivxverr.NewValidation("/roles", "duplicate roles")
		}
		seen[r] = true
	}
	if seen["none"] && len(c.Roles) > 1 {
		return nil, ivxverr.NewValidation("/roles", `role "none" can't be used with other roles`)
	}
	return &c, nil
}
