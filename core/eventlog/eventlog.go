// Package eventlog appends structured events to the management service's
// audit trail (spec.md §6): one JSON object per line, in
// /var/lib/ivxv/ivxv-management-events.log, never rotated or truncated
// except by explicit collector reinitialization.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Level is the severity of a logged event.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Messages is the catalog of known event identifiers and their
// human-readable templates, ported from the original's EVENTS table.
// A template references its params with Go fmt verbs in declaration
// order, not named placeholders: callers pass params positionally.
var Messages = map[string]string{
	"COLLECTOR_INIT":             "Initialize collector",
	"COLLECTOR_RESET":            "Reset collector (state: not installed)",
	"COLLECTOR_STATE_CHANGE":     "Collector state changed from %q to %q",
	"CMD_LOAD":                   "Load command %q version %q",
	"CMD_LOADED":                 "Command %q is loaded, version %q",
	"CMD_REMOVED":                "Command %q is removed, version %q",
	"VOTER_LIST_DOWNLOADED":      "Downloaded voter list changeset #%d",
	"VOTER_LIST_DOWNLOAD_FAILED": "Failed to download voter list changeset #%d",
	"PERMISSION_SET":             "Add permission %q to user %q",
	"PERMISSION_RESET":           "Reset user %q permissions",
	"SET_ELECTION_TIME":          "Election %q timestamp set to %s",
	"SERVICE_REGISTER":           "Add %s service (state: not installed)",
	"SERVICE_CONFIG_APPLY":       "Applied %s version %q",
	"SERVICE_STATE_CHANGE":       "Service state changed from %q to %q",
	"SECRET_INSTALL":             "%s loaded to service",
}

// Event is one line of the event log.
type Event struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Service   string `json:"service"`
	Event     string `json:"event"`
	Message   string `json:"message"`
}

// T appends events to a single log file. Safe for concurrent use.
type T struct {
	mu   sync.Mutex
	path string
}

// Open returns an event log appending to path, creating it if necessary.
func Open(path string) *T {
	return &T{path: path}
}

// Init truncates the event log and records COLLECTOR_INIT, used by the
// collector-init CLI subcommand on a freshly created or reset installation.
func (t *T) Init() error {
	t.mu.Lock()
	if err := os.RemoveAll(t.path); err != nil && !os.IsNotExist(err) {
		t.mu.Unlock()
		return errors.Wrapf(err, "remove event log %s", t.path)
	}
	t.mu.Unlock()
	return t.Register("COLLECTOR_INIT", LevelInfo, "", nil)
}

// Register formats event against Messages[event] and appends one JSON line.
// service defaults to "management" when empty. params are passed positionally
// to the message's fmt verbs.
func (t *T) Register(event string, level Level, service string, params ...interface{}) error {
	tmpl, ok := Messages[event]
	if !ok {
		return errors.Errorf("unknown event %q", event)
	}
	if service == "" {
		service = "management"
	}
	rec := Event{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Service:   service,
		Event:     event,
		Message:   fmt.Sprintf(tmpl, params...),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return errors.Wrapf(err, "open event log %s", t.path)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	if err := enc.Encode(rec); err != nil {
		return errors.Wrap(err, "encode event")
	}
	return nil
}

// Info is shorthand for Register with LevelInfo.
func (t *T) Info(event, service string, params ...interface{}) error {
	return t.Register(event, LevelInfo, service, params...)
}

// Error is shorthand for Register with LevelError.
func (t *T) Error(event, service string, params ...interface{}) error {
	return t.Register(event, LevelError, service, params...)
}

// Dump reads every event in file order, used by the eventlog-dump CLI
// subcommand.
func (t *T) Dump() ([]Event, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event log %s", t.path)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, errors.Wrap(err, "decode event log line")
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan event log")
	}
	return events, nil
}
