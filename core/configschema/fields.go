package configschema

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var backupTimeRe = regexp.MustCompile(`^[0-9]{2}:[0-9]{2}$`)

func validateBackupTime(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if !backupTimeRe.MatchString(v) {
		return false
	}
	parts := strings.SplitN(v, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	return hour < 24 && minute < 60
}

func validateElectionID(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	n := utf8.RuneCountInString(v)
	if n < 1 || n > 28 {
		return false
	}
	return !strings.ContainsAny(v, " \t\n\r\f\v")
}

// PEMBlock is a placeholder for a PEM-encoded certificate or public key.
// The original validates these with OpenSSL; without a vetted ecosystem PEM
// validation library in the retrieved pack, this control plane enforces
// only the wire shape (non-empty PEM block markers) and defers cryptographic
// validity to the external verify-container tool, which is the system of
// record for signature and certificate trust per spec.md §1.
type PEMBlock string

func (p PEMBlock) Valid() bool {
	s := string(p)
	return strings.Contains(s, "-----BEGIN") && strings.Contains(s, "-----END")
}
