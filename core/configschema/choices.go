package configschema

import (
	"encoding/json"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// ChoicesConfig is the choices-list artifact: election -> district ->
// category -> choice-id -> label (spec.md §4.2).
type ChoicesConfig struct {
	Election string                                  `json:"election" validate:"required,electionid"`
	Choices  map[string]map[string]map[string]string `json:"choices"`
}

// ParseChoices decodes and validates a choices list payload (JSON).
func ParseChoices(raw []byte) (*ChoicesConfig, error) {
	var c ChoicesConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid JSON: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, districtChoices := range c.Choices {
		for _, choice := range districtChoices {
			for choiceID := range choice {
				if seen[choiceID] {
					return nil, ivxverr.NewValidation("/choices", "duplicate choice ID: %s", choiceID)
				}
				seen[choiceID] = true
			}
		}
	}
	return &c, nil
}

// ChoiceIDs returns every choice id declared, used by cross-file checks.
func (c *ChoicesConfig) ChoiceIDs() map[string]string {
	out := map[string]string{}
	for district, districtChoices := range c.Choices {
		for _, choice := range districtChoices {
			for choiceID := range choice {
				out[choiceID] = district
			}
		}
	}
	return out
}

// Districts returns the set of district ids referenced by at least one choice.
func (c *ChoicesConfig) Districts() map[string]bool {
	out := map[string]bool{}
	for district := range c.Choices {
		out[district] = true
	}
	return out
}
