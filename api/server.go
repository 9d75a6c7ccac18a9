// Package api implements C8, the HTTP surface consumed by the web UI and by
// command-artifact uploads (spec.md §4.8). Every route authenticates by
// client certificate: the front-end web server is expected to inject the
// verified client CN into the X-Client-CN request header (the Go-native
// equivalent of the original's Apache-injected SSL_CLIENT_S_DN_CN
// environment variable, since a Go net/http server has no CGI-style
// per-request environment).
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ivxv.ee/collector-admin/core/ballotbox"
	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/processorinput"
	"ivxv.ee/collector-admin/core/remote"
	"ivxv.ee/collector-admin/core/store"
)

// Server holds every dependency the route handlers need, wired once at
// startup by the admin-httpd CLI subcommand.
type Server struct {
	DB             *store.T
	Loader         *commandfile.Loader
	Events         *eventlog.T
	BallotBox      *ballotbox.Exporter
	Consolidated   *ballotbox.Exporter
	ProcessorInput *processorinput.Builder
	Remote         *remote.T
	PermissionsDir string
	StatusPath     string
	UploadDir      string
	LogMonitorHost string
	VotingHost     string
	Log            *zerolog.Logger
}

// Router builds the full gorilla/mux route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.neverCacheMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/context.json", s.handleContext).Methods(http.MethodGet)
	r.HandleFunc("/upload-config", s.handleUploadConfig).Methods(http.MethodPost)
	r.HandleFunc("/download-ballot-box", s.handleDownloadBallotBox(false)).Methods(http.MethodPost)
	r.HandleFunc("/download-consolidated-ballot-box", s.handleDownloadBallotBox(true)).Methods(http.MethodPost)
	r.HandleFunc("/ballot-box-state", s.handleBallotBoxState).Methods(http.MethodGet)
	r.HandleFunc("/skip-voters-list", s.handleSkipVotersList).Methods(http.MethodPost)
	r.HandleFunc("/download-processor-input", s.handleDownloadProcessorInput).Methods(http.MethodPost)
	r.HandleFunc("/download-voting-sessions", s.handleDownloadVotingSessions).Methods(http.MethodPost)
	r.HandleFunc("/download-voter-detail-stats", s.handleDownloadVoterDetailStats).Methods(http.MethodPost)
	r.HandleFunc("/eventlog", s.handleEventlog).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// neverCacheMiddleware sets the "don't allow response caching" headers
// every route in spec.md §4.8 requires, matching wsgi.py's
// response.expires = EXPIRES_DEFAULT (the Unix epoch).
func (s *Server) neverCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Expires", time.Unix(0, 0).UTC().Format(http.TimeFormat))
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if r.URL.Path != "/metrics" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Log != nil {
			s.Log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("http request")
		}
		next.ServeHTTP(w, r)
	})
}
