package configschema

import (
	"gopkg.in/yaml.v3"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// TrustConfig is the trust-root artifact: the signed-container profile plus
// the initially authorized signer CNs (spec.md §4.2, §4.3 step "trust").
type TrustConfig struct {
	Container      VoteContainerConfig `yaml:"container" json:"container" validate:"required"`
	Authorizations []string            `yaml:"authorizations" json:"authorizations" validate:"required,min=1"`
}

// ParseTrust decodes and validates a trust config payload.
func ParseTrust(raw []byte) (*TrustConfig, error) {
	var c TrustConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid YAML: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	if err := validateContainerProfile(&c.Container, ""); err != nil {
		return nil, err
	}
	return &c, nil
}

// validateContainerProfile ports the BDocSchema.validate_tsp cross-field
// rule: a TS profile requires a tsp block.
func validateContainerProfile(c *VoteContainerConfig, path string) error {
	if c.BDoc == nil {
		return nil
	}
	if c.BDoc.Profile == "TS" && c.BDoc.TSP == nil {
		return ivxverr.NewValidation(path+"/container/bdoc/tsp", "TS profile requires a tsp block")
	}
	return nil
}
