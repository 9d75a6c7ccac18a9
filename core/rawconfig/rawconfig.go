// Package rawconfig loads the management node's own configuration: the
// IVXV_ADMIN_CONF ini file and the IVXV_ADMIN_DATA_PATH directory layout.
// It is the analog of the teacher's config.Type, but returned as an
// immutable value rather than consulted through a package-level global.
package rawconfig

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Paths holds the on-disk layout, per spec.md §6: every path is rooted at
// IVXV_ADMIN_DATA_PATH except Active, which is always /etc/ivxv.
type Paths struct {
	Root              string
	DB                string
	Commands          string
	Active            string
	AdminUIData       string
	AdminUIPerms      string
	Upload            string
	BallotBox         string
	EventLog          string
	DebPkg            string
}

// T is the immutable configuration value threaded through constructors.
type T struct {
	Path   string
	Paths  Paths
	v      *viper.Viper
	logger zerolog.Logger
}

const (
	envConfPath = "IVXV_ADMIN_CONF"
	envDataPath = "IVXV_ADMIN_DATA_PATH"
)

// Load reads IVXV_ADMIN_CONF (an ini file) and derives the data path layout
// from IVXV_ADMIN_DATA_PATH. Both environment variables are mandatory: the
// CLI entry points (C9) fail fast if either is unset.
func Load() (*T, error) {
	confPath := os.Getenv(envConfPath)
	if confPath == "" {
		return nil, fmt.Errorf("%s is not set", envConfPath)
	}
	dataPath := os.Getenv(envDataPath)
	if dataPath == "" {
		return nil, fmt.Errorf("%s is not set", envDataPath)
	}
	v := viper.New()
	v.SetConfigFile(confPath)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", confPath, err)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	t := &T{
		Path:   confPath,
		Paths:  pathsUnder(dataPath),
		v:      v,
		logger: logger,
	}
	return t, nil
}

func pathsUnder(root string) Paths {
	return Paths{
		Root:         root,
		DB:           filepath.Join(root, "db", "ivxv-management.db"),
		Commands:     filepath.Join(root, "commands"),
		Active:       "/etc/ivxv",
		AdminUIData:  filepath.Join(root, "admin-ui-data"),
		AdminUIPerms: filepath.Join(root, "admin-ui-permissions"),
		Upload:       filepath.Join(root, "upload"),
		BallotBox:    filepath.Join(root, "ballot-box"),
		EventLog:     filepath.Join(root, "ivxv-management-events.log"),
		DebPkg:       filepath.Join(root, "deb-pkg"),
	}
}

// CreateDataDirs creates the data directories named by Paths (not Active),
// used by the create-data-dirs CLI subcommand (§4.9).
func (t *T) CreateDataDirs() error {
	dirs := []string{
		filepath.Dir(t.Paths.DB),
		t.Paths.Commands,
		t.Paths.AdminUIData,
		t.Paths.AdminUIPerms,
		t.Paths.Upload,
		t.Paths.BallotBox,
		t.Paths.DebPkg,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return fmt.Errorf("mkdir %s: %w", d, err)
		}
	}
	return nil
}

// Get returns a raw config key value, mirroring the teacher's config.Type.Get,
// debug-trace included (the teacher uses logrus for this single spot, not
// zerolog — kept as-is, an intentionally uneven ambient-logging texture).
func (t *T) Get(key string) interface{} {
	val := t.v.Get(key)
	log.Debugf("config %s get %s => %v", t.Path, key, val)
	return val
}

func (t *T) GetString(key string) string {
	if v, ok := t.Get(key).(string); ok {
		return v
	}
	return ""
}

// Logger returns a child logger tagged with the given component name.
func (t *T) Logger(component string) *zerolog.Logger {
	l := t.logger.With().Str("component", component).Logger()
	return &l
}
