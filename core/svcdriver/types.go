// Package svcdriver implements C6, the per-service lifecycle driver: install,
// configure, ping, restart, apply-list, stop (spec.md §4.6). It holds the
// service state machine and drives the fleet through core/remote — the
// Service value it operates on is a read-only join of a database row and
// a technical-config entry, never an embedded SSH channel (spec.md §9 design
// note on "The Service class").
package svcdriver

import "fmt"

// Account is the unprivileged SSH account every remote invocation
// authenticates as; privilege escalation, where needed, happens through the
// remote ivxv-admin-sudo helper, never through a different SSH account.
const Account = "ivxv"

// unitName is the systemd unit managing a service type's daemon.
func unitName(serviceType string) string {
	return "ivxv-" + serviceType
}

// impHelper is the service type's own list-apply CLI helper, invoked
// in-host over SSH (spec.md §6 "the per-service choiceimp, districtimp,
// voterimp ... helpers").
func impHelper(listType string) string {
	switch listType {
	case "choices":
		return "choiceimp"
	case "districts":
		return "districtimp"
	case "voters":
		return "voterimp"
	default:
		return ""
	}
}

// secretPath is the remote destination path and file mode for a given
// secret kind, ported from the original's SECRET_FILES table.
type secretPath struct {
	path string
	mode string
}

var secretPaths = map[string]secretPath{
	"tls-key":       {"/etc/ivxv/tls/service.key", "0600"},
	"tls-cert":      {"/etc/ivxv/tls/service.crt", "0644"},
	"mid-token-key": {"/etc/ivxv/mid/identity.key", "0600"},
	"tspreg-key":    {"/etc/ivxv/tsp/tspreg.key", "0600"},
}

func secretDestination(kind string) (secretPath, error) {
	sp, ok := secretPaths[kind]
	if !ok {
		return secretPath{}, fmt.Errorf("unknown secret kind %q", kind)
	}
	return sp, nil
}

// secretDBField maps a secret kind to the database field it sets on success.
func secretDBField(kind string) string { return kind }
