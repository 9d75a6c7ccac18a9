package commandfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// historyFilename is the on-disk name a loaded command's container is
// copied to, e.g. "technical-2024-10-01T08:00:00Z.bdoc".
func historyFilename(t Type, timestamp string) string {
	return fmt.Sprintf("%s-%s.bdoc", t, timestamp)
}

// activeFilename is the name under the active-config directory that a
// symlink to the current version is (re)created at.
func activeFilename(t Type, voterListNo int) string {
	if t == TypeVoters {
		return fmt.Sprintf("voters%02d.bdoc", voterListNo)
	}
	return string(t) + ".bdoc"
}

// progressFilename derives a history file's sidecar progress path.
func progressFilename(historyPath string) string {
	return strings.TrimSuffix(historyPath, filepath.Ext(historyPath)) + ".json"
}

// copyToHistory copies the source container into the command-history
// directory under its timestamped name, returning the destination path.
func copyToHistory(historyDir string, t Type, timestamp, srcPath string) (string, error) {
	dst := filepath.Join(historyDir, historyFilename(t, timestamp))
	src, err := os.Open(srcPath)
	if err != nil {
		return "", errors.Wrapf(err, "open source file %s", srcPath)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return "", errors.Wrapf(err, "create history file %s", dst)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return "", errors.Wrapf(err, "copy %s to %s", srcPath, dst)
	}
	return dst, nil
}

// linkActive (re)creates the active-directory symlink pointing at a
// history file, and, for the five types that carry a progress file,
// (re)writes it with a fresh default record.
func linkActive(activeDir string, t Type, voterListNo int, historyPath, version string, autoapply bool) (activePath, progressPath string, err error) {
	activePath = filepath.Join(activeDir, activeFilename(t, voterListNo))
	if err := os.Remove(activePath); err != nil && !os.IsNotExist(err) {
		return "", "", errors.Wrapf(err, "remove stale symlink %s", activePath)
	}
	if err := os.Symlink(historyPath, activePath); err != nil {
		return "", "", errors.Wrapf(err, "symlink %s -> %s", historyPath, activePath)
	}

	if !hasProgressFile(t) {
		return activePath, "", nil
	}
	progressPath = progressFilename(historyPath)
	if err := os.Remove(progressPath); err != nil && !os.IsNotExist(err) {
		return "", "", errors.Wrapf(err, "remove stale progress file %s", progressPath)
	}
	p := NewProgress(Descriptions[t], filepath.Base(activePath), version, autoapply)
	if err := WriteProgress(progressPath, p); err != nil {
		return "", "", err
	}
	return activePath, progressPath, nil
}

// hasProgressFile reports whether t is one of the five command types that
// get driven through the fleet and so need an apply-progress sidecar
// (spec.md §4.3); trust and user take effect immediately in the database
// and have none.
func hasProgressFile(t Type) bool {
	switch t {
	case TypeTechnical, TypeElection, TypeChoices, TypeDistricts, TypeVoters:
		return true
	default:
		return false
	}
}

// ActivePath returns the path of the active-directory symlink for t (and
// voterListNo, for TypeVoters), regardless of whether it currently exists.
func ActivePath(activeDir string, t Type, voterListNo int) string {
	return filepath.Join(activeDir, activeFilename(t, voterListNo))
}

// ProgressPathFor resolves the apply-progress sidecar for the command
// currently active under t (and voterListNo, for TypeVoters), by following
// the active symlink to its command-history target. It returns ("", nil)
// when t carries no progress file or no active link exists yet — the
// agent loop (C7) treats either as "nothing to apply".
func ProgressPathFor(activeDir string, t Type, voterListNo int) (string, error) {
	if !hasProgressFile(t) {
		return "", nil
	}
	active := ActivePath(activeDir, t, voterListNo)
	target, err := os.Readlink(active)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "readlink %s", active)
	}
	return progressFilename(target), nil
}
