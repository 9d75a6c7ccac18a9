// Package permissions resolves a client certificate CN to its roles and
// permission set, grounded on the original's ivxv_admin/__init__.py ROLES
// table and its zero-content "<CN>-<role>" marker-file directory.
package permissions

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Permission is one capability a role may grant.
type Permission string

const (
	PermissionBallotBoxDownload Permission = "download-ballot-box"
	PermissionElectionConf      Permission = "election-conf-admin"
	PermissionLogView           Permission = "log-view"
	PermissionStatsView         Permission = "stats-view"
	PermissionTechConf          Permission = "tech-conf-admin"
	PermissionUsersAdmin        Permission = "user-admin"
)

// Role describes one named bundle of permissions.
type Role struct {
	Description string
	Permissions []Permission
}

// Roles is the fixed role catalog (spec.md is silent on role management UI;
// the original's four built-in roles are carried over unchanged).
var Roles = map[string]Role{
	"admin": {
		Description: "Administrator",
		Permissions: []Permission{
			PermissionBallotBoxDownload, PermissionElectionConf, PermissionLogView,
			PermissionStatsView, PermissionTechConf, PermissionUsersAdmin,
		},
	},
	"election-conf-manager": {
		Description: "Election config manager",
		Permissions: []Permission{
			PermissionBallotBoxDownload, PermissionElectionConf, PermissionStatsView,
		},
	},
	"viewer": {
		Description: "Viewer",
		Permissions: []Permission{PermissionStatsView},
	},
	"none": {
		Description: "No permissions",
	},
}

// User is the resolved identity/authorization context for one CN.
type User struct {
	CN                string       `json:"cn"`
	UserName          string       `json:"user_name"`
	IDCode            string       `json:"idcode"`
	Roles             []string     `json:"role"`
	RoleDescriptions  []string     `json:"role-description"`
	Permissions       []Permission `json:"permissions"`
}

// Has reports whether u carries permission p.
func (u *User) Has(p Permission) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Resolve derives a User from a client certificate CN, matching the
// original's "surname,name,idcode" DN format, by checking for marker files
// "<permissionsDir>/<cn>-<role>" for every known role.
func Resolve(permissionsDir, cn string) *User {
	u := &User{CN: cn}
	parts := strings.SplitN(cn, ",", 3)
	if len(parts) == 3 {
		u.UserName = parts[1] + " " + parts[0]
		u.IDCode = parts[2]
	}

	roleNames := make([]string, 0, len(Roles))
	for name := range Roles {
		roleNames = append(roleNames, name)
	}
	sort.Strings(roleNames)

	permSet := map[Permission]bool{}
	for _, name := range roleNames {
		if name == "none" {
			continue
		}
		markerPath := filepath.Join(permissionsDir, cn+"-"+name)
		if _, err := os.Stat(markerPath); err != nil {
			continue
		}
		role := Roles[name]
		u.Roles = append(u.Roles, name)
		u.RoleDescriptions = append(u.RoleDescriptions, role.Description)
		for _, p := range role.Permissions {
			permSet[p] = true
		}
	}

	if len(u.Roles) == 0 {
		u.Roles = []string{"none"}
		u.RoleDescriptions = []string{Roles["none"].Description}
	}
	for p := range permSet {
		u.Permissions = append(u.Permissions, p)
	}
	sort.Slice(u.Permissions, func(i, j int) bool { return u.Permissions[i] < u.Permissions[j] })
	return u
}

// Grant creates the zero-content marker file authorizing cn for role.
func Grant(permissionsDir, cn, role string) error {
	path := filepath.Join(permissionsDir, cn+"-"+role)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	return f.Close()
}

// Revoke removes every "<cn>-<role>" marker for cn, across all known roles.
func Revoke(permissionsDir, cn string) error {
	for name := range Roles {
		path := filepath.Join(permissionsDir, cn+"-"+name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
