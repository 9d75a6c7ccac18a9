package svcdriver

import (
	"time"

	"github.com/rs/zerolog"

	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/remote"
	"ivxv.ee/collector-admin/core/store"
)

// Service is the read-only join of a technical-config entry and its
// database row that every driver operation takes as its subject.
type Service struct {
	ID      string
	Type    string
	Host    string // address without port
	Address string // host:port, as declared in the technical config
}

// Driver is C6's entry point, holding the shared remote-exec facility
// rather than a per-service connection (spec.md §9).
type Driver struct {
	DB     *store.T
	Remote *remote.T
	Events *eventlog.T
	Log    *zerolog.Logger
	Now    func() time.Time
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Driver) logEvent(event, service string, params ...interface{}) {
	if d.Events == nil {
		return
	}
	_ = d.Events.Info(event, service, params...)
}
