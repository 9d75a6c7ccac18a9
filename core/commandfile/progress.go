package commandfile

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ProgressEntry is one line of a command's apply log, appended by the
// service driver (C6) as it works through the fleet.
type ProgressEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Progress is the sidecar `<type>-<timestamp>.json` file tracking whether a
// loaded command has been applied to the fleet (spec.md §4.3 "command
// progress file").
type Progress struct {
	ArtifactID    string          `json:"artifact_id"`
	ConfigType    string          `json:"config_type"`
	ConfigFile    string          `json:"config_file"`
	ConfigVersion string          `json:"config_version"`
	Autoapply     bool            `json:"autoapply"`
	Completed     bool            `json:"completed"`
	Attempts      int             `json:"attempts"`
	Log           []ProgressEntry `json:"log"`
}

// NewProgress builds the default, freshly-registered progress record.
// ArtifactID is a fresh random identifier distinct from ConfigVersion
// (which is the signer-provided/derived version string): it lets operators
// correlate a specific load-to-apply run across the event log and progress
// sidecar even when the same config version is reloaded.
func NewProgress(configType, configFile, configVersion string, autoapply bool) *Progress {
	return &Progress{
		ArtifactID:    uuid.New().String(),
		ConfigType:    configType,
		ConfigFile:    configFile,
		ConfigVersion: configVersion,
		Autoapply:     autoapply,
		Log:           []ProgressEntry{},
	}
}

// WriteProgress writes p to path as indented JSON, replacing any existing
// file. Unlike the database, the progress file is single-owner per command
// (only the driver applying it and the CLI querying it touch it) so a
// write-then-rename is sufficient without an external lock.
func WriteProgress(path string, p *Progress) error {
	b, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal progress")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o640); err != nil {
		return errors.Wrapf(err, "write progress temp file %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename progress file %s", path)
	}
	return nil
}

// ReadProgress reads and decodes the progress file at path.
func ReadProgress(path string) (*Progress, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read progress file %s", path)
	}
	var p Progress
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrapf(err, "decode progress file %s", path)
	}
	return &p, nil
}

// AppendLogAndSave appends a message to the progress log and persists it,
// the read-modify-write cycle the service driver performs after each apply
// attempt.
func AppendLogAndSave(path string, message string, now func() string) error {
	p, err := ReadProgress(path)
	if err != nil {
		return err
	}
	p.Log = append(p.Log, ProgressEntry{Timestamp: now(), Message: message})
	return WriteProgress(path, p)
}
