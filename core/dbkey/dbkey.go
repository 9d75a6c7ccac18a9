// Package dbkey parses and renders the management database's key namespace,
// section/name[/field], as laid out in spec.md §3.
package dbkey

import (
	"fmt"
	"strings"
)

// T is a parsed database key.
type T struct {
	Section string
	Name    string
	Field   string
}

// Parse splits a raw key string into section/name[/field]. It does not
// validate that the section or name are known; core/store does that against
// the prefix rules of spec.md §3.
func Parse(raw string) T {
	parts := strings.SplitN(raw, "/", 3)
	t := T{}
	if len(parts) > 0 {
		t.Section = parts[0]
	}
	if len(parts) > 1 {
		t.Name = parts[1]
	}
	if len(parts) > 2 {
		t.Field = parts[2]
	}
	return t
}

// String renders the key back to its canonical raw form.
func (t T) String() string {
	switch {
	case t.Name != "" && t.Field != "":
		return fmt.Sprintf("%s/%s/%s", t.Section, t.Name, t.Field)
	case t.Field != "":
		return fmt.Sprintf("%s/%s", t.Section, t.Field)
	case t.Name != "":
		return fmt.Sprintf("%s/%s", t.Section, t.Name)
	default:
		return t.Section
	}
}

// Service builds a service/<sid>/<field> key.
func Service(sid, field string) string {
	return T{Section: "service", Name: sid, Field: field}.String()
}

// Host builds a host/<hostname>/<field> key.
func Host(hostname, field string) string {
	return T{Section: "host", Name: hostname, Field: field}.String()
}

// VoterList builds a list/voters<NNNN>[-field] key. field is appended as
// "-field" rather than "/field" to match the original flat naming
// (list/voters0000-state, not list/voters0000/state).
func VoterList(changeset int, field string) string {
	base := fmt.Sprintf("list/voters%04d", changeset)
	if field == "" {
		return base
	}
	return base + "-" + field
}

// User builds a user/<CN> key.
func User(cn string) string {
	return T{Section: "user", Name: cn}.String()
}

// Config builds a config/<type> key.
func Config(typ string) string {
	return T{Section: "config", Name: typ}.String()
}

// Election builds an election/<field> key.
func Election(field string) string {
	return T{Section: "election", Field: field}.String()
}
