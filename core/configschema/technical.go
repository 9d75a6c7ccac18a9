package configschema

import (
	"gopkg.in/yaml.v3"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// ServiceEntry is one service instance declared in a network segment.
type ServiceEntry struct {
	ID          string `yaml:"id" json:"id" validate:"required"`
	Address     string `yaml:"address" json:"address" validate:"required"`
	PeerAddress string `yaml:"peeraddress" json:"peeraddress,omitempty"`
}

// BackupServiceEntry is the backup subservice's variant (address without a
// port requirement, matching BackupServiceSchema).
type BackupServiceEntry struct {
	ID      string `yaml:"id" json:"id" validate:"required"`
	Address string `yaml:"address" json:"address" validate:"required"`
}

// Services is the per-segment map of service-type to its declared instances,
// keyed by the closed set of spec.md §8.
type Services struct {
	Proxy        []ServiceEntry        `yaml:"proxy" json:"proxy,omitempty"`
	MID          []ServiceEntry        `yaml:"mid" json:"mid,omitempty"`
	SmartID      []ServiceEntry        `yaml:"smartid" json:"smartid,omitempty"`
	VotesOrder   []ServiceEntry        `yaml:"votesorder" json:"votesorder,omitempty"`
	Voting       []ServiceEntry        `yaml:"voting" json:"voting,omitempty"`
	Choices      []ServiceEntry        `yaml:"choices" json:"choices,omitempty"`
	Verification []ServiceEntry        `yaml:"verification" json:"verification,omitempty"`
	Storage      []ServiceEntry        `yaml:"storage" json:"storage,omitempty"`
	Log          []ServiceEntry        `yaml:"log" json:"log,omitempty"`
	Backup       []BackupServiceEntry  `yaml:"backup" json:"backup,omitempty" validate:"max=1"`
}

// NetworkSegment groups a set of services under a segment id.
type NetworkSegment struct {
	ID       string   `yaml:"id" json:"id" validate:"required"`
	Services Services `yaml:"services" json:"services"`
}

type tlsFilterConfig struct {
	HandshakeTimeout int      `yaml:"handshaketimeout" json:"handshaketimeout" validate:"min=0"`
	CipherSuites     []string `yaml:"ciphersuites" json:"ciphersuites" validate:"required,min=1"`
}

type codecFilterConfig struct {
	RWTimeout   int  `yaml:"rwtimeout" json:"rwtimeout" validate:"min=0"`
	RequestSize int  `yaml:"requestsize" json:"requestsize" validate:"min=0"`
	LogRequests bool `yaml:"logrequests" json:"logrequests"`
}

type filterConfig struct {
	TLS   tlsFilterConfig   `yaml:"tls" json:"tls"`
	Codec codecFilterConfig `yaml:"codec" json:"codec"`
}

type logServerConfig struct {
	Address string `yaml:"address" json:"address" validate:"required"`
	Port    int    `yaml:"port" json:"port"`
}

// TechnicalConfig is the collector technical config artifact (spec.md §4.2).
type TechnicalConfig struct {
	Debug      bool             `yaml:"debug" json:"debug"`
	SNIDomain  string           `yaml:"snidomain" json:"snidomain" validate:"required"`
	Filter     filterConfig     `yaml:"filter" json:"filter"`
	Network    []NetworkSegment `yaml:"network" json:"network" validate:"required,min=1,dive"`
	Logging    []logServerConfig `yaml:"logging" json:"logging,omitempty"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	BackupTime []string         `yaml:"backup" json:"backup,omitempty" validate:"dive,backuptime"`
	LogMonitor string           `yaml:"logmonitor" json:"logmonitor,omitempty"`
}

// ParseTechnical decodes and validates a technical config payload.
func ParseTechnical(raw []byte) (*TechnicalConfig, error) {
	var c TechnicalConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid YAML: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	if err := validateServiceIDsUnique(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateServiceIDsUnique(c *TechnicalConfig) error {
	seen := map[string]bool{}
	for _, seg := range c.Network {
		for _, list := range [][]ServiceEntry{
			seg.Services.Proxy, seg.Services.MID, seg.Services.SmartID,
			seg.Services.VotesOrder, seg.Services.Voting, seg.Services.Choices,
			seg.Services.Verification, seg.Services.Storage, seg.Services.Log,
		} {
			for _, s := range list {
				if seen[s.ID] {
					return ivxverr.NewValidation("/network", "duplicate service id %q", s.ID)
				}
				seen[s.ID] = true
			}
		}
		for _, s := range seg.Services.Backup {
			if seen[s.ID] {
				return ivxverr.NewValidation("/network", "duplicate service id %q", s.ID)
			}
			seen[s.ID] = true
		}
	}
	return nil
}

// AllServices flattens every declared service instance with its type name,
// for use by core/store default-row insertion (§4.3 "technical" effects).
func (c *TechnicalConfig) AllServices() []struct {
	ID, Type, Address, Network string
} {
	var out []struct {
		ID, Type, Address, Network string
	}
	add := func(segID, typ string, entries []ServiceEntry) {
		for _, e := range entries {
			out = append(out, struct{ ID, Type, Address, Network string }{e.ID, typ, e.Address, segID})
		}
	}
	for _, seg := range c.Network {
		add(seg.ID, "proxy", seg.Services.Proxy)
		add(seg.ID, "mid", seg.Services.MID)
		add(seg.ID, "smartid", seg.Services.SmartID)
		add(seg.ID, "votesorder", seg.Services.VotesOrder)
		add(seg.ID, "voting", seg.Services.Voting)
		add(seg.ID, "choices", seg.Services.Choices)
		add(seg.ID, "verification", seg.Services.Verification)
		add(seg.ID, "storage", seg.Services.Storage)
		add(seg.ID, "log", seg.Services.Log)
		for _, e := range seg.Services.Backup {
			out = append(out, struct{ ID, Type, Address, Network string }{e.ID, "backup", e.Address, seg.ID})
		}
	}
	return out
}

// Hostnames returns the distinct hostnames (address sans port) referenced by
// the config, used to seed host/<hostname>/state rows.
func (c *TechnicalConfig) Hostnames() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range c.AllServices() {
		h := hostFromAddress(s.Address)
		if h != "" && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

func hostFromAddress(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
