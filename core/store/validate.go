package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ivxv.ee/collector-admin/core/dbkey"
)

var (
	versionRe   = regexp.MustCompile(`^(\w+,){2}\d{11} .+$`)
	userCNRe    = regexp.MustCompile(`^.+,.+,[0-9]{11}$`)
	voterListRe = regexp.MustCompile(`^list/voters[0-9]{4}(-loaded|-state)?$`)
	startStopRe = regexp.MustCompile(`^election/(election|service)(start|stop)$`)
)

// validateSet mirrors db.py's set_value validation: a BadKeyOrValue error is
// returned for anything that doesn't match one of the known key shapes.
func validateSet(key, value string) error {
	switch {
	case key == "collector/state":
		if !contains(CollectorStates, value) {
			return badKeyOrValue("invalid collector/state value %q", value)
		}
		return nil
	case key == "election/election-id":
		return nil
	case key == "election/tsp-qualification":
		if value != "" && value != "TRUE" {
			return badKeyOrValue("invalid election/tsp-qualification value %q", value)
		}
		return nil
	case strings.HasPrefix(key, "election/auth/"):
		if value != "" && value != "TRUE" {
			return badKeyOrValue("invalid %s value %q", key, value)
		}
		return nil
	case startStopRe.MatchString(key):
		if value == "" {
			return nil
		}
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return badKeyOrValue("invalid timestamp for %s: %v", key, err)
		}
		return nil
	case voterListRe.MatchString(key):
		if strings.HasSuffix(key, "-state") {
			if !contains(VoterListStates, value) {
				return badKeyOrValue("invalid voter list state %q", value)
			}
			return nil
		}
		return validateVersionValue(key, value)
	case key == "list/choices", key == "list/choices-loaded",
		key == "list/districts", key == "list/districts-loaded":
		return validateVersionValue(key, value)
	case key == "config/election", key == "config/technical", key == "config/trust":
		return validateVersionValue(key, value)
	case strings.HasPrefix(key, "host/"):
		k := dbkey.Parse(key)
		if k.Field == "" || !HostSubkeys[k.Field] {
			return badKeyOrValue("invalid host key type %q", k.Field)
		}
		return nil
	case strings.HasPrefix(key, "service/"):
		k := dbkey.Parse(key)
		if k.Field == "" || !AllowedServiceKeys()[k.Field] {
			return badKeyOrValue("invalid service key type %q", k.Field)
		}
		if k.Field == "state" && !contains(ServiceStates, value) {
			return badKeyOrValue("invalid value for %s: %q", key, value)
		}
		if k.Field == "service-type" && value != "" && !contains(ServiceTypes, value) {
			return badKeyOrValue("invalid service-type value %q", value)
		}
		return nil
	case strings.HasPrefix(key, "user/"):
		name := strings.TrimPrefix(key, "user/")
		if !userCNRe.MatchString(key) {
			return badKeyOrValue("invalid user CN: %s", name)
		}
		return nil
	case strings.HasPrefix(key, "logmonitor/"):
		k := dbkey.Parse(key)
		if k.Field != "address" && k.Field != "last-data" {
			return badKeyOrValue("invalid logmonitor key %q", key)
		}
		return nil
	default:
		return badKeyOrValue("invalid database field name: %s", key)
	}
}

func validateVersionValue(key, value string) error {
	if value == "" {
		return nil
	}
	if !versionRe.MatchString(value) {
		return badKeyOrValue("invalid version value for %s: %q", key, value)
	}
	parts := strings.SplitN(value, " ", 2)
	if _, err := time.Parse(time.RFC3339, parts[1]); err != nil {
		return badKeyOrValue("invalid version timestamp for %s: %v", key, err)
	}
	return nil
}

// BadKeyOrValue is returned by Set when the key or value fails the
// per-prefix validation of spec.md §3/§4.1.
type BadKeyOrValue struct {
	msg string
}

func (e *BadKeyOrValue) Error() string { return e.msg }

func badKeyOrValue(format string, args ...interface{}) error {
	return &BadKeyOrValue{msg: fmt.Sprintf(format, args...)}
}
