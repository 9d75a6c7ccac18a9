package configschema

import (
	"time"

	"gopkg.in/yaml.v3"

	"ivxv.ee/collector-admin/core/ivxverr"
)

type electionVerification struct {
	Count   int `yaml:"count" json:"count" validate:"min=0"`
	Minutes int `yaml:"minutes" json:"minutes" validate:"min=0"`
}

type electionVoting struct {
	RateLimitStart   int `yaml:"ratelimitstart" json:"ratelimitstart" validate:"min=0"`
	RateLimitMinutes int `yaml:"ratelimitminutes" json:"ratelimitminutes" validate:"min=0"`
}

// ElectionPeriod is the start/stop tuple of spec.md §3 invariant 4.
type ElectionPeriod struct {
	ServiceStart   time.Time `yaml:"servicestart" json:"servicestart" validate:"required"`
	ElectionStart  time.Time `yaml:"electionstart" json:"electionstart" validate:"required"`
	ElectionStop   time.Time `yaml:"electionstop" json:"electionstop" validate:"required"`
	ServiceStop    time.Time `yaml:"servicestop" json:"servicestop" validate:"required"`
}

type voterListConfig struct {
	Key string `yaml:"key" json:"key" validate:"required"`
}

type ticketAuthConfig struct{}

type tlsAuthConfig struct {
	Roots         []string    `yaml:"roots" json:"roots" validate:"required,min=1"`
	Intermediates []string    `yaml:"intermediates" json:"intermediates,omitempty"`
	OCSP          *OCSPConfig `yaml:"ocsp" json:"ocsp,omitempty"`
}

type authConfig struct {
	Ticket *ticketAuthConfig `yaml:"ticket" json:"ticket,omitempty"`
	TLS    *tlsAuthConfig    `yaml:"tls" json:"tls,omitempty"`
}

type ageConfig struct {
	Method   string `yaml:"method" json:"method" validate:"required,oneof=estpic"`
	Timezone string `yaml:"timezone" json:"timezone" validate:"required"`
	Limit    int    `yaml:"limit" json:"limit" validate:"min=16"`
}

// ElectionConfig is the election config artifact (spec.md §4.2).
type ElectionConfig struct {
	Identifier    string                `yaml:"identifier" json:"identifier" validate:"required,electionid"`
	Questions     []string              `yaml:"questions" json:"questions" validate:"required,min=1"`
	Verification  electionVerification  `yaml:"verification" json:"verification"`
	Voting        electionVoting        `yaml:"voting" json:"voting"`
	Period        ElectionPeriod        `yaml:"period" json:"period"`
	IgnoreVoterList string              `yaml:"ignorevoterlist" json:"ignorevoterlist,omitempty"`
	VoterList     voterListConfig       `yaml:"voterlist" json:"voterlist"`
	Auth          authConfig            `yaml:"auth" json:"auth"`
	Identity      string                `yaml:"identity" json:"identity" validate:"required,oneof=commonname serialnumber pnoee"`
	Age           *ageConfig            `yaml:"age" json:"age,omitempty"`
	Vote          VoteContainerConfig   `yaml:"vote" json:"vote"`
	Qualification []QualificationConfig `yaml:"qualification" json:"qualification,omitempty"`
}

// ParseElection decodes and validates an election config payload.
func ParseElection(raw []byte) (*ElectionConfig, error) {
	var c ElectionConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid YAML: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	if err := validateQuestionsUnique(c.Questions); err != nil {
		return nil, err
	}
	if err := validatePeriodOrder(c.Period); err != nil {
		return nil, err
	}
	if err := validateRateLimit(c.Voting); err != nil {
		return nil, err
	}
	if err := validateContainerProfile(&c.Vote, ""); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateQuestionsUnique(qs []string) error {
	seen := map[string]bool{}
	for _, q := range qs {
		if seen[q] {
			return ivxverr.NewValidation("/questions", "election questions must be unique")
		}
		seen[q] = true
	}
	return nil
}

// validatePeriodOrder ports spec.md §3 invariant 4:
// servicestart < electionstart < electionstop < servicestop.
func validatePeriodOrder(p ElectionPeriod) error {
	pairs := []struct {
		name1, name2 string
		t1, t2       time.Time
	}{
		{"servicestart", "electionstart", p.ServiceStart, p.ElectionStart},
		{"electionstart", "electionstop", p.ElectionStart, p.ElectionStop},
		{"electionstop", "servicestop", p.ElectionStop, p.ServiceStop},
	}
	for _, pr := range pairs {
		if !pr.t1.Before(pr.t2) {
			return ivxverr.NewValidation("/period/"+pr.name2, "value %q is not after %q (%s)", pr.name2, pr.name1, pr.t1)
		}
	}
	return nil
}

func validateRateLimit(v electionVoting) error {
	if v.RateLimitStart > 0 && v.RateLimitMinutes == 0 {
		return ivxverr.NewValidation("/voting/ratelimitminutes", "ratelimitstart set, but rate limiting disabled")
	}
	return nil
}
