// Package ballotbox implements the background vote-export job behind
// POST /download-ballot-box and POST /download-consolidated-ballot-box,
// grounded on the original's http_daemon.py download_ballots handler: spawn
// an external helper, write its output to a timestamped file under the
// ballot-box directory, and let GET /ballot-box-state report progress
// without the HTTP handler itself blocking on the export.
package ballotbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Exporter drives one export helper binary into Dir. Only one export may be
// in flight at a time, tracked by a pidfile next to the output.
type Exporter struct {
	Dir    string
	Binary string // "ivxv-votes-export" or "ivxv-votes-export-consolidated"
	Now    func() time.Time
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) pidPath() string { return filepath.Join(e.Dir, "export.pid") }

// State is GET /ballot-box-state's response body.
type State struct {
	Filename string `json:"filename"`
	Running  bool   `json:"running"`
	Log      string `json:"log"`
}

// Start spawns the export helper in the background and returns immediately
// with the output filename it will produce, matching http_daemon.py's
// "return the filename, let the client poll" contract. Returns an error if
// an export is already running.
func (e *Exporter) Start() (string, error) {
	if e.running() {
		return "", errors.New("an export is already in progress")
	}
	timestamp := e.now().Format("2006.01.02_15.04")
	filename := fmt.Sprintf("exported-votes-%s.zip", timestamp)
	outPath := filepath.Join(e.Dir, filename)
	logPath := outPath + ".log"

	logFile, err := os.Create(logPath)
	if err != nil {
		return "", errors.Wrapf(err, "create export log %s", logPath)
	}

	cmd := exec.Command(e.Binary, outPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return "", errors.Wrapf(err, "start %s", e.Binary)
	}
	if err := os.WriteFile(e.pidPath(), []byte(fmt.Sprintf("%d %s", cmd.Process.Pid, filename)), 0o640); err != nil {
		logFile.Close()
		return "", errors.Wrap(err, "write export pidfile")
	}

	go func() {
		defer logFile.Close()
		cmd.Wait()
		os.Remove(e.pidPath())
		os.Chmod(outPath, 0o666)
	}()

	return filename, nil
}

func (e *Exporter) running() bool {
	b, err := os.ReadFile(e.pidPath())
	if err != nil {
		return false
	}
	var pid int
	var filename string
	if _, err := fmt.Sscanf(string(b), "%d %s", &pid, &filename); err != nil {
		return false
	}
	_, err = os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

// State reports the current export job's progress: while the job's pidfile
// exists, the filename Start recorded, whether the helper is still running,
// and the helper's combined log. Once the helper exits its pidfile is
// removed, and State then returns an empty State.
func (e *Exporter) State() (*State, error) {
	b, err := os.ReadFile(e.pidPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, errors.Wrap(err, "read export pidfile")
	}
	var pid int
	var filename string
	if _, err := fmt.Sscanf(string(b), "%d %s", &pid, &filename); err != nil {
		return &State{}, nil
	}

	logPath := filepath.Join(e.Dir, filename+".log")
	logBytes, _ := os.ReadFile(logPath)

	_, statErr := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return &State{
		Filename: filename,
		Running:  statErr == nil,
		Log:      string(logBytes),
	}, nil
}
