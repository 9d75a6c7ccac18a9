// Package collstate implements C4: deriving the collector's and each
// service's aggregate state, election phase, and operator-facing status
// snapshot from the raw rows of core/store (spec.md §4.4).
package collstate

// TypeParams is the fixed per-service-type parameter set that drives both
// bg_info hint generation and FAILURE/PARTIAL_FAILURE classification,
// ported from the original's SERVICE_TYPE_PARAMS table.
type TypeParams struct {
	MainService   bool
	RequireConfig bool
	RequireTLS    bool
	Tspreg        bool
	MobileID      bool
}

// ServiceTypeParams is keyed by the closed set of spec.md §8 service types.
var ServiceTypeParams = map[string]TypeParams{
	"backup":       {MainService: false, RequireConfig: false, RequireTLS: false},
	"choices":      {MainService: true, RequireConfig: true, RequireTLS: true, MobileID: true},
	"log":          {MainService: false, RequireConfig: false, RequireTLS: false},
	"mid":          {MainService: true, RequireConfig: true, RequireTLS: true, MobileID: true},
	"votesorder":   {MainService: true, RequireConfig: true, RequireTLS: true},
	"proxy":        {MainService: true, RequireConfig: true, RequireTLS: false},
	"smartid":      {MainService: true, RequireConfig: true, RequireTLS: true, MobileID: true},
	"storage":      {MainService: true, RequireConfig: true, RequireTLS: true},
	"verification": {MainService: true, RequireConfig: true, RequireTLS: true},
	"voting":       {MainService: true, RequireConfig: true, RequireTLS: true, Tspreg: true, MobileID: true},
}

// DebPkgFilenames is the deb-package-presence checklist of spec.md §4.4
// "storage" block, ported from the original's COLLECTOR_PKG_FILENAMES.
var DebPkgFilenames = []string{
	"ivxv-admin", "ivxv-backup", "ivxv-choices", "ivxv-common", "ivxv-log",
	"ivxv-mid", "ivxv-votesorder", "ivxv-smartid", "ivxv-proxy",
	"ivxv-storage", "ivxv-verification", "ivxv-voting",
}
