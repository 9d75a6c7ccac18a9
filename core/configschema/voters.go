package configschema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ivxv.ee/collector-admin/core/ivxverr"
)

const (
	ActionAdd    = "lisamine"
	ActionRemove = "kustutamine"
)

var (
	personalCodeRe = regexp.MustCompile(`^[0-9]{11}$`)
	districtNoRe   = regexp.MustCompile(`^[0-9]{1,10}$`)
)

// VoterRecord is one line of a voters list changeset.
type VoterRecord struct {
	PersonalCode  string
	Name          string
	Action        string
	AdminUnitCode string
	DistrictNo    string
}

// VotersList is a parsed voters-list changeset (spec.md §4.2).
type VotersList struct {
	Version    string
	Election   string
	Changeset  int
	PeriodFrom time.Time
	PeriodTo   time.Time
	Voters     []VoterRecord
}

// ParseVoters parses the newline-delimited voters list text format. It does
// not run cross-file consistency checks (chain/district/voters); those are
// in consistency.go and require the registry of previously loaded changesets.
func ParseVoters(content []byte) (*VotersList, error) {
	text := string(content)
	lines := strings.Split(text, "\n")
	if len(lines) < 5 {
		return nil, ivxverr.NewValidation("", "too few lines in voters list (%d)", len(lines))
	}
	if lines[len(lines)-1] != "" {
		return nil, ivxverr.NewValidation("", "must end with <LF> character")
	}

	data := &VotersList{}
	data.Version = lines[0]
	if data.Version != "2" {
		return nil, ivxverr.NewValidation("/version", "invalid voters list version %q in line 1, expected \"2\"", data.Version)
	}
	data.Election = lines[1]
	if err := validateASCII(data.Election); err != nil {
		return nil, ivxverr.NewValidation("/election", "election ID contains non-ASCII characters")
	}

	changesetStr := lines[2]
	changeset, err := strconv.Atoi(changesetStr)
	if err != nil || changeset < 0 {
		return nil, ivxverr.NewValidation("/changeset", "unknown voters list changeset %q in line 3, must be a non-negative integer", changesetStr)
	}
	data.Changeset = changeset

	periodParts := strings.SplitN(lines[3], "\t", -1)
	if len(periodParts) != 2 {
		return nil, ivxverr.NewValidation("/period", "period does not contain two tab-separated fields")
	}
	from, err := time.Parse(time.RFC3339, periodParts[0])
	if err != nil {
		return nil, ivxverr.NewValidation("/period/from", "invalid timestamp: %s", err)
	}
	to, err := time.Parse(time.RFC3339, periodParts[1])
	if err != nil {
		return nil, ivxverr.NewValidation("/period/to", "invalid timestamp: %s", err)
	}
	data.PeriodFrom = from
	data.PeriodTo = to

	isInitial := changeset == 0
	for i := 0; i < len(lines)-1; i++ {
		lineNo := i + 1
		line := lines[i]
		if strings.Contains(line, "\r") {
			return nil, ivxverr.NewValidation(fmt.Sprintf("/line%d", lineNo), "invalid character <CR>")
		}
		if i < 4 {
			continue
		}
		rec, err := parseVoterRecord(line, isInitial)
		if err != nil {
			return nil, ivxverr.NewValidation(fmt.Sprintf("/line%d", lineNo), "%s", err)
		}
		data.Voters = append(data.Voters, *rec)
	}
	return data, nil
}

func parseVoterRecord(line string, isInitial bool) (*VoterRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid field count %d, expected 5 fields", len(fields))
	}
	rec := VoterRecord{
		PersonalCode:  fields[0],
		Name:          fields[1],
		Action:        fields[2],
		AdminUnitCode: fields[3],
		DistrictNo:    fields[4],
	}
	if !personalCodeRe.MatchString(rec.PersonalCode) {
		return nil, fmt.Errorf("invalid voter-personalcode %q", rec.PersonalCode)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("voter-name is empty")
	}
	if len([]rune(rec.Name)) > 100 {
		return nil, fmt.Errorf("voter-name length %d exceeds 100 chars", len([]rune(rec.Name)))
	}
	if rec.Action != ActionAdd && rec.Action != ActionRemove {
		return nil, fmt.Errorf("unknown action %q, must be %q or %q", rec.Action, ActionAdd, ActionRemove)
	}
	if isInitial && rec.Action != ActionAdd {
		return nil, fmt.Errorf("action %q is not allowed in initial list", rec.Action)
	}
	if rec.AdminUnitCode == "" {
		return nil, fmt.Errorf("missing adminunit-code")
	}
	if len([]rune(rec.AdminUnitCode)) > 4 && rec.AdminUnitCode != "FOREIGN" {
		return nil, fmt.Errorf("adminunit-code %q is longer than 4 chars", rec.AdminUnitCode)
	}
	if !districtNoRe.MatchString(rec.DistrictNo) {
		return nil, fmt.Errorf("invalid no-district %q", rec.DistrictNo)
	}
	return &rec, nil
}

func validateASCII(s string) error {
	for _, r := range s {
		if r > 127 {
			return fmt.Errorf("non-ASCII character")
		}
	}
	return nil
}

// VoterListSkip is the changeset-skip command payload (a YAML command, not a
// voters-list text file): the election permits registering a changeset as
// SKIPPED with no data, so a later changeset number becomes loadable.
type VoterListSkip struct {
	Election      string `yaml:"election" json:"election" validate:"required,electionid"`
	SkipVoterList string `yaml:"skip_voter_list" json:"skip_voter_list" validate:"required"`
	Changeset     int    `yaml:"changeset" json:"changeset" validate:"min=0"`
}

var skipVoterListRe = regexp.MustCompile(`^[^ ]+ [^ ]+$`)

// ParseVoterListSkip decodes and validates a changeset-skip command.
func ParseVoterListSkip(raw []byte) (*VoterListSkip, error) {
	var c VoterListSkip
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, ivxverr.NewValidation("", "invalid YAML: %s", err)
	}
	if err := runValidate("", &c); err != nil {
		return nil, err
	}
	if !skipVoterListRe.MatchString(c.SkipVoterList) {
		return nil, ivxverr.NewValidation("/skip_voter_list", "must be two space-separated tokens")
	}
	return &c, nil
}
