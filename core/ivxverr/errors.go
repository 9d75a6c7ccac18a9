// Package ivxverr implements the error taxonomy of spec.md §7. Each kind
// wraps an underlying cause with github.com/pkg/errors and is recovered with
// errors.As, matching the wrapping style used throughout the teacher's
// util/command and core/object packages.
package ivxverr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError is a schema or cross-file consistency mismatch. It carries
// a dotted path per spec.md §4.2 ("/period/electionstart").
type ValidationError struct {
	Path    string
	Message string
	cause   error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// NewValidation builds a ValidationError at the given dotted path.
func NewValidation(path, format string, args ...interface{}) error {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// WrapValidation attaches a dotted path to an existing cause.
func WrapValidation(cause error, path string) error {
	return &ValidationError{Path: path, Message: cause.Error(), cause: cause}
}

// SignatureError covers verifier failures and missing-authorization cases.
type SignatureError struct {
	Message string
	cause   error
}

func (e *SignatureError) Error() string { return e.Message }
func (e *SignatureError) Unwrap() error { return e.cause }

func NewSignature(format string, args ...interface{}) error {
	return &SignatureError{Message: fmt.Sprintf(format, args...)}
}

func WrapSignature(cause error, msg string) error {
	return &SignatureError{Message: msg, cause: cause}
}

// LockBusyError covers database-lock and pidfile contention (§4.1, §4.7).
type LockBusyError struct {
	Resource string
	Attempts int
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("%s: lock busy after %d attempts", e.Resource, e.Attempts)
}

func NewLockBusy(resource string, attempts int) error {
	return &LockBusyError{Resource: resource, Attempts: attempts}
}

// RemoteError wraps a non-zero SSH/SCP exit, recorded as service bg_info and
// in the command progress file (§4.5, §4.6).
type RemoteError struct {
	Host     string
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote command on %s exited %d: %v: %s", e.Host, e.ExitCode, e.Argv, e.Stderr)
}

func NewRemote(host string, argv []string, exitCode int, stderr string) error {
	return &RemoteError{Host: host, Argv: argv, ExitCode: exitCode, Stderr: stderr}
}

// VersionDriftError signals a service reporting a configuration version the
// database does not recognize as current (§4.6 pingVerify).
type VersionDriftError struct {
	Service        string
	Expected       string
	ReportedLatest string
}

func (e *VersionDriftError) Error() string {
	return fmt.Sprintf("service %s: version drift, expected %q, service reports %q", e.Service, e.Expected, e.ReportedLatest)
}

func NewVersionDrift(service, expected, reported string) error {
	return &VersionDriftError{Service: service, Expected: expected, ReportedLatest: reported}
}

// InternalInvariant covers unexpected conditions such as a malformed existing
// DB row. The process does not crash; the offending operation aborts.
type InternalInvariant struct {
	Message string
	cause   error
}

func (e *InternalInvariant) Error() string { return "internal invariant violated: " + e.Message }
func (e *InternalInvariant) Unwrap() error { return e.cause }

func NewInternalInvariant(format string, args ...interface{}) error {
	return &InternalInvariant{Message: fmt.Sprintf(format, args...)}
}

func WrapInternalInvariant(cause error, msg string) error {
	return &InternalInvariant{Message: msg, cause: cause}
}

// Is* helpers centralize the errors.As boilerplate for callers that only
// need a boolean classification (e.g. the HTTP layer picking an exit code).

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsSignature(err error) bool {
	var e *SignatureError
	return errors.As(err, &e)
}

func IsLockBusy(err error) bool {
	var e *LockBusyError
	return errors.As(err, &e)
}

func IsRemote(err error) bool {
	var e *RemoteError
	return errors.As(err, &e)
}

func IsVersionDrift(err error) bool {
	var e *VersionDriftError
	return errors.As(err, &e)
}

func IsInternalInvariant(err error) bool {
	var e *InternalInvariant
	return errors.As(err, &e)
}
