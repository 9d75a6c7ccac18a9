package commandfile

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// VerifierBinary is the external container-signature verifier, invoked the
// same way across every command type (spec.md §4.2 "Signature verification
// of BDOC/ASiC containers is delegated to an external verify-container
// helper").
var VerifierBinary = "ivxv-verify-container"

var verifierExitMeanings = map[int]string{
	64: "command was used incorrectly",
	65: "failed to open container",
	66: "input file did not exist or was not readable",
	74: "failed to read trust root",
}

// Signature is one signer line reported by the container verifier.
type Signature struct {
	Timestamp time.Time
	Signer    string
	Line      string
}

var signatureLineRe = regexp.MustCompile(`^.+,.+,[0-9]{11} `)

// VerifySignatures runs the external verifier against filePath, using
// trustContainerPath as the trust root (the trust container itself, when
// loading a trust command; otherwise the currently active trust.bdoc), and
// returns every reported signature sorted by timestamp, oldest first.
func VerifySignatures(ctx context.Context, trustContainerPath, filePath string) ([]Signature, error) {
	cmd := exec.CommandContext(ctx, VerifierBinary, "-trust", trustContainerPath, filePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.Wrapf(err, "execute %s", VerifierBinary)
		}
		code := exitErr.ExitCode()
		reason, known := verifierExitMeanings[code]
		if !known {
			reason = "unhandled error"
		}
		return nil, ivxverr.NewSignature("container verifier failed (%s): %s", reason, strings.TrimSpace(stderr.String()))
	}

	return parseSignatures(stdout.String())
}

func parseSignatures(output string) ([]Signature, error) {
	var sigs []Signature
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		if !signatureLineRe.MatchString(line) {
			return nil, ivxverr.NewSignature("invalid signature line: %s", line)
		}
		parts := strings.SplitN(line, " ", 2)
		signer, tsStr := parts[0], parts[1]
		ts, err := time.Parse("2006-01-02T15:04:05Z", tsStr)
		if err != nil {
			return nil, ivxverr.NewSignature("invalid signature timestamp %q: %s", tsStr, err)
		}
		sigs = append(sigs, Signature{Timestamp: ts, Signer: signer, Line: line})
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].Timestamp.Before(sigs[j].Timestamp) })
	return sigs, nil
}

// Authorization is one signature accepted by a permission check, paired with
// the role under which it was authorized.
type Authorization struct {
	Signature Signature
	Role      string
}

// AuthorizeAgainstTrust filters signatures against a trust container's own
// authorizations list, the special case for loading the trust command
// itself (spec.md §4.3 step 3: "trust⇒implicit-admin-set").
func AuthorizeAgainstTrust(sigs []Signature, authorizations []string) []Authorization {
	trusted := map[string]bool{}
	for _, cn := range authorizations {
		trusted[cn] = true
	}
	var out []Authorization
	for _, s := range sigs {
		if trusted[s.Signer] {
			out = append(out, Authorization{Signature: s, Role: "admin"})
		}
	}
	return out
}

// UserRoles resolves a signer CN's roles, the shape the management database
// stores them in: a comma-separated list under user/<CN>.
type UserRoles func(cn string) (roles []string, found bool)

// AuthorizeAgainstDatabase filters signatures against the database's
// user/<CN> roles, keeping only those roles that carry the permission
// required for cmdType.
func AuthorizeAgainstDatabase(sigs []Signature, cmdType Type, lookup UserRoles) []Authorization {
	required := RequiredPermission(cmdType)
	var out []Authorization
	for _, s := range sigs {
		roles, found := lookup(s.Signer)
		if !found {
			continue
		}
		for _, role := range roles {
			if rolePermissions[role][required] {
				out = append(out, Authorization{Signature: s, Role: role})
			}
		}
	}
	return out
}

// rolePermissions is the closed permission set per role, matching the
// RequiredPermission tokens used to gate command loading.
var rolePermissions = map[string]map[Permission]bool{
	"admin": {
		PermissionTechConf:     true,
		PermissionElectionConf: true,
		PermissionUsersAdmin:   true,
	},
	"TECH_CONF":     {PermissionTechConf: true},
	"ELECTION_CONF": {PermissionElectionConf: true},
	"USERS_ADMIN":   {PermissionUsersAdmin: true},
	"none":          {},
}
