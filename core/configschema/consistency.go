package configschema

import (
	"fmt"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// VoterRegistry is the running set of registered voter personal codes built
// by replaying changesets in order (spec.md §4.2 "Voter-list chain").
type VoterRegistry map[string]bool

// NewVoterRegistry returns an empty registry.
func NewVoterRegistry() VoterRegistry { return VoterRegistry{} }

// Apply replays one changeset's records against the registry, failing if
// lisamine targets an already-present id, kustutamine targets an absent id,
// or a single changeset both adds and removes the same id.
func (r VoterRegistry) Apply(list *VotersList) error {
	touched := map[string]string{}
	for i, v := range list.Voters {
		if prev, ok := touched[v.PersonalCode]; ok && prev != v.Action {
			return ivxverr.NewValidation(fmt.Sprintf("/voters/%d", i), "personal code %s is both added and removed in changeset %d", v.PersonalCode, list.Changeset)
		}
		touched[v.PersonalCode] = v.Action
		switch v.Action {
		case ActionAdd:
			if r[v.PersonalCode] {
				return ivxverr.NewValidation(fmt.Sprintf("/voters/%d", i), "lisamine of already-present id %s", v.PersonalCode)
			}
			r[v.PersonalCode] = true
		case ActionRemove:
			if !r[v.PersonalCode] {
				return ivxverr.NewValidation(fmt.Sprintf("/voters/%d", i), "kustutamine of absent id %s", v.PersonalCode)
			}
			delete(r, v.PersonalCode)
		}
	}
	return nil
}

// ValidateDistrictChoices checks that every choice maps to an existing
// district and every district has at least one choice.
func ValidateDistrictChoices(districts *DistrictsConfig, choices *ChoicesConfig) error {
	districtIDs := districts.IDs()
	choiceDistricts := choices.Districts()
	for district := range choiceDistricts {
		if !districtIDs[district] {
			return ivxverr.NewValidation("/choices", "choice references unknown district %q", district)
		}
	}
	for id := range districtIDs {
		if !choiceDistricts[id] {
			return ivxverr.NewValidation("/districts", "district %q has no choices", id)
		}
	}
	return nil
}

// ValidateDistrictVoters checks that every voter's (adminunit, district-no)
// resolves to a known district; FOREIGN is mapped via foreignEHAK, the
// election config's voterforeignehak value.
func ValidateDistrictVoters(districts *DistrictsConfig, list *VotersList, foreignEHAK string) error {
	for i, v := range list.Voters {
		adminUnit := v.AdminUnitCode
		if adminUnit == "FOREIGN" {
			adminUnit = foreignEHAK
		}
		id := adminUnit + "." + v.DistrictNo
		if !districts.IDs()[id] {
			return ivxverr.NewValidation(fmt.Sprintf("/voters/%d", i), "voter district %q is not a known district", id)
		}
	}
	return nil
}
