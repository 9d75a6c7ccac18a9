// Package remote implements C5, a thin wrapper around the external SSH and
// SCP clients used to reach fleet hosts (spec.md §4.5). It holds no
// persistent connection state — every call shells out, logs the full argv,
// and returns a non-zero exit as a value rather than an error, matching the
// teacher's util/command "run external binary, treat exit as data" style.
package remote

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Direction selects which end of an scp invocation is local.
type Direction int

const (
	// Push copies the local file to the remote host.
	Push Direction = iota
	// Pull copies the remote file to the local path.
	Pull
)

// Result is the outcome of one remote invocation. A non-zero ExitCode is
// not an error return — callers decide whether it constitutes a RemoteError.
type Result struct {
	Exit   int
	Stdout string
	Stderr string
}

// T is the remote executor handle.
type T struct {
	SSHBinary string
	SCPBinary string
	Log       *zerolog.Logger
}

// New returns a handle using the standard openssh client binaries.
func New(log *zerolog.Logger) *T {
	return &T{SSHBinary: "ssh", SCPBinary: "scp", Log: log}
}

// preferredAuth is prepended to every invocation per spec.md §4.5: publickey
// only, no password or keyboard-interactive fallback.
var preferredAuth = []string{"-o", "PreferredAuthentications=publickey"}

// SSH runs argv on host as account over ssh. stdin is optional; captureOut
// controls whether stdout is kept in the Result (stderr always is); both
// are logged at debug level regardless. forwardAgent adds -A.
func (t *T) SSH(ctx context.Context, host, account string, argv []string, stdin io.Reader, captureOut, forwardAgent bool) (*Result, error) {
	args := append([]string{}, preferredAuth...)
	args = append(args, "-T")
	if forwardAgent {
		args = append(args, "-A")
	}
	args = append(args, account+"@"+host, "--")
	args = append(args, argv...)

	cmd := exec.CommandContext(ctx, t.SSHBinary, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if t.Log != nil {
		t.Log.Debug().Str("host", host).Strs("argv", argv).Msg("ssh")
	}
	err := cmd.Run()
	res, runErr := resultFromRun(err, &stdout, &stderr)
	if runErr != nil {
		return nil, errors.Wrapf(runErr, "execute ssh to %s", host)
	}
	if t.Log != nil {
		t.Log.Debug().Str("host", host).Int("exit", res.Exit).Str("stdout", res.Stdout).Str("stderr", res.Stderr).Msg("ssh done")
	}
	if !captureOut {
		res.Stdout = ""
	}
	return res, nil
}

// SCP copies one file between local and remote, per spec.md §4.5 ("one file
// only", either direction).
func (t *T) SCP(ctx context.Context, local, remote, account string, dir Direction) (*Result, error) {
	args := append([]string{}, preferredAuth...)
	target := account + "@" + remoteHostPath(remote)
	switch dir {
	case Push:
		args = append(args, local, target)
	case Pull:
		args = append(args, target, local)
	}

	cmd := exec.CommandContext(ctx, t.SCPBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if t.Log != nil {
		t.Log.Debug().Str("local", local).Str("remote", remote).Int("dir", int(dir)).Msg("scp")
	}
	err := cmd.Run()
	res, runErr := resultFromRun(err, &stdout, &stderr)
	if runErr != nil {
		return nil, errors.Wrapf(runErr, "execute scp %s <-> %s", local, remote)
	}
	if t.Log != nil {
		t.Log.Debug().Int("exit", res.Exit).Msg("scp done")
	}
	return res, nil
}

// remoteHostPath expects remote to already carry "host:path" and passes it
// through unchanged; split out so callers can build it with fmt elsewhere.
func remoteHostPath(remote string) string { return remote }

func resultFromRun(err error, stdout, stderr *bytes.Buffer) (*Result, error) {
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		res.Exit = 0
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.Exit = exitErr.ExitCode()
		return res, nil
	}
	return nil, err
}
