package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/permissions"
)

// uploadResponse is the {success, message, log[]} envelope spec.md §4.8
// requires from upload-config, mirroring wsgi.py's apply_config body.
type uploadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Log     []string `json:"log"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) currentUser(r *http.Request) *permissions.User {
	cn := r.Header.Get("X-Client-CN")
	return permissions.Resolve(s.PermissionsDir, cn)
}

// handleContext serves GET /context.json: current-user identity/roles plus
// a collector/election summary, grounded on wsgi.py's context() handler.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	data := map[string]interface{}{"current-user": user}
	if len(user.Roles) > 0 && user.Roles[0] != "none" {
		snap, err := s.readSnapshot()
		if err == nil {
			data["collector"] = snap.CollectorState
			data["voting"] = map[string]string{
				"id":    snap.Election.ElectionID,
				"stage": snap.Election.Phase,
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

func (s *Server) readSnapshot() (*collstate.Snapshot, error) {
	b, err := os.ReadFile(s.StatusPath)
	if err != nil {
		return nil, err
	}
	var snap collstate.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// handleUploadConfig serves POST /upload-config: save the uploaded
// multipart file, run it through the command loader, and report the
// outcome in the {success,message,log[]} envelope (spec.md §4.8).
func (s *Server) handleUploadConfig(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "Üleslaaditav fail on määramata"})
		return
	}
	file, header, err := r.FormFile("upload")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "Üleslaaditav fail on määramata"})
		return
	}
	defer file.Close()

	cmdType := commandfile.Type(r.FormValue("type"))
	if !commandfile.Valid(cmdType) {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "Tundmatu käsu tüüp"})
		return
	}

	destPath := filepath.Join(s.UploadDir, time.Now().Format("20060102-150405.000")+"-"+header.Filename)
	dst, err := os.Create(destPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Faili salvestamine ebaõnnestus"})
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Faili salvestamine ebaõnnestus"})
		return
	}
	dst.Close()

	result, err := s.Loader.Load(r.Context(), cmdType, destPath, true, false)
	if err != nil {
		writeJSON(w, http.StatusOK, uploadResponse{
			Success: false,
			Message: err.Error(),
			Log:     []string{err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: "Fail \"" + header.Filename + "\" on edukalt üles laaditud",
		Log:     []string{"loaded version " + result.Version},
	})
}

// handleDownloadBallotBox serves both POST /download-ballot-box and
// POST /download-consolidated-ballot-box: spawns the export in the
// background and returns the output filename immediately, matching
// http_daemon.py's download_ballots handler.
func (s *Server) handleDownloadBallotBox(consolidated bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exporter := s.BallotBox
		if consolidated {
			exporter = s.Consolidated
		}
		if exporter == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "export not configured"})
			return
		}
		filename, err := exporter.Start()
		if err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, filename)
	}
}

// handleBallotBoxState serves GET /ballot-box-state.
func (s *Server) handleBallotBoxState(w http.ResponseWriter, r *http.Request) {
	if s.BallotBox == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	state, err := s.BallotBox.State()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSkipVotersList serves POST /skip-voters-list: marks the next
// pending voter-list changeset SKIPPED (spec.md §4.8).
func (s *Server) handleSkipVotersList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.DB.All("list/voters")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	n, ok := nextPendingChangeset(rows)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ootel muudatusi ei ole"})
		return
	}
	if err := s.DB.Set(dbkey.VoterList(n, "state"), "SKIPPED"); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "muudatus vahele jäetud"})
}

func nextPendingChangeset(rows map[string]string) (int, bool) {
	best := -1
	for k, v := range rows {
		if !strings.HasSuffix(k, "-state") || v != "PENDING" {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(k, "list/voters"), "-state")
		n, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		if best == -1 || n < best {
			best = n
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// handleDownloadProcessorInput serves POST /download-processor-input: builds
// and streams the processor input bundle directly from the database and
// active-config symlinks, no background job required.
func (s *Server) handleDownloadProcessorInput(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="processor-input.zip"`)
	if err := s.ProcessorInput.Build(w); err != nil {
		if s.Log != nil {
			s.Log.Error().Err(err).Msg("processor input build failed")
		}
	}
}

// handleDownloadVotingSessions serves POST /download-voting-sessions: SSH to
// the configured voting service and stream its CSV report.
func (s *Server) handleDownloadVotingSessions(w http.ResponseWriter, r *http.Request) {
	s.streamRemoteHelper(w, r, s.VotingHost, []string{"ivxv-voting-sessions"}, "voting-sessions.csv", "text/csv")
}

// handleDownloadVoterDetailStats serves POST /download-voter-detail-stats:
// SSH to the log monitor and stream its voter-detail JSON.
func (s *Server) handleDownloadVoterDetailStats(w http.ResponseWriter, r *http.Request) {
	s.streamRemoteHelper(w, r, s.LogMonitorHost, []string{"ivxv-voterstats", "--detail"}, "voter-detail-stats.json", "application/json")
}

// streamRemoteHelper SSHes to host, runs argv, and streams stdout back with
// the given filename/content-type, matching the "SSH to log-monitor/voting-
// service, stream CSV/JSON" contract of spec.md §4.8.
func (s *Server) streamRemoteHelper(w http.ResponseWriter, r *http.Request, host string, argv []string, filename, contentType string) {
	if host == "" || s.Remote == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "remote host not configured"})
		return
	}
	res, err := s.Remote.SSH(r.Context(), host, "ivxv", argv, nil, true, false)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": err.Error()})
		return
	}
	if res.Exit != 0 {
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": res.Stderr})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Stdout))
}

// handleEventlog serves GET /eventlog: the audit trail as a JSON array
// (spec.md §4.8), reusing core/eventlog's line-oriented reader.
func (s *Server) handleEventlog(w http.ResponseWriter, r *http.Request) {
	events, err := s.Events.Dump()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
