package configschema

import (
	"encoding/json"

	"ivxv.ee/collector-admin/core/ivxverr"
)

type districtRecord struct {
	Name   string   `json:"name" validate:"required"`
	Parish []string `json:"parish" validate:"required,min=1"`
}

type regionRecord struct {
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
	Parish string `json:"parish,omitempty"`
}

// DistrictsConfig is the districts-list artifact (spec.md §4.2).
type DistrictsConfig struct {
	Election  string                      `json:"election" validate:"required,electionid"`
	Districts map[string]districtRecord   `json:"districts"`
	Regions   map[string]regionRecord     `json:"regions,omitempty"`
	Counties  map[string][]string         `json:"counties,omitempty"`
}

// ParseDistricts decodes and validates a districts list payload (JSON).
func ParseDistricts(raw []byte) (*DistrictsConfig, error) {
	var c DistrictsConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid JSON: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SimplifiedForUI renders the [id,label] pairs the loader writes alongside
// the districts artifact for the web UI (§4.3 "districts" effect).
func (c *DistrictsConfig) SimplifiedForUI() [][2]string {
	out := make([][2]string, 0, len(c.Districts))
	for id, d := range c.Districts {
		out = append(out, [2]string{id, d.Name})
	}
	return out
}

// IDs returns the set of declared district ids.
func (c *DistrictsConfig) IDs() map[string]bool {
	out := map[string]bool{}
	for id := range c.Districts {
		out[id] = true
	}
	return out
}
