package commandfile

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"

	"ivxv.ee/collector-admin/core/ivxverr"
)

// containerEntries are the wrapper files present in every BDOC/ASiC
// container that are never candidate payload files.
var containerEntries = map[string]bool{
	"META-INF/manifest.xml":   true,
	"META-INF/signatures0.xml": true,
	"mimetype":                true,
}

// ExtractPayload opens the ZIP container at path and returns the single
// payload file's name and content, per the per-type file-selection rules of
// the original's get_command_filename.
func ExtractPayload(t Type, path string) (filename string, content []byte, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", nil, ivxverr.NewSignature("file %q is not a valid ZIP container", path)
		}
		return "", nil, errors.Wrapf(err, "open container %s", path)
	}
	defer zr.Close()

	var candidates []string
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		if containerEntries[f.Name] {
			continue
		}
		candidates = append(candidates, f.Name)
		files[f.Name] = f
	}

	name, err := selectPayloadName(t, candidates)
	if err != nil {
		return "", nil, err
	}
	f, ok := files[name]
	if !ok {
		return "", nil, ivxverr.NewValidation("", "container does not contain expected file %q", name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", nil, errors.Wrapf(err, "open %s in container", name)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, errors.Wrapf(err, "read %s from container", name)
	}
	return name, b, nil
}

// selectPayloadName picks the one candidate file to treat as the command
// payload, applying the per-type rules of spec.md §4.2.
func selectPayloadName(t Type, candidates []string) (string, error) {
	switch t {
	case TypeTrust, TypeTechnical, TypeElection:
		re := regexp.MustCompile(fmt.Sprintf(`^(.+\.)?%s\.yaml$`, regexp.QuoteMeta(string(t))))
		for _, c := range candidates {
			if re.MatchString(c) {
				return c, nil
			}
		}
		return "", ivxverr.NewValidation("", "container does not contain a %s config file", t)

	case TypeUser:
		for _, c := range candidates {
			if filepath.Base(c) == "user.json" {
				return c, nil
			}
		}
		return "", ivxverr.NewValidation("", "container does not contain user.json")

	case TypeChoices, TypeDistricts:
		switch len(candidates) {
		case 0:
			return "", ivxverr.NewValidation("", "missing %s list in container", t)
		case 1:
			return candidates[0], nil
		default:
			return "", ivxverr.NewValidation("", "too many files in %s container: %v", t, candidates)
		}

	case TypeVoters:
		return selectVotersPayload(candidates)

	default:
		return "", ivxverr.NewInternalInvariant("unhandled command type %q", t)
	}
}

func selectVotersPayload(candidates []string) (string, error) {
	switch {
	case len(candidates) == 1 && hasSuffix(candidates[0], ".skip.yaml"):
		return candidates[0], nil
	case len(candidates) < 2:
		return "", ivxverr.NewValidation("", "missing voters list or signature in container")
	case len(candidates) > 2:
		return "", ivxverr.NewValidation("", "too many files in voters container: %v", candidates)
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	sigName, utfName := sorted[0], sorted[1]
	if hasSuffix(utfName, ".utf") && sigName == utfName[:len(utfName)-4]+".sig" {
		return utfName, nil
	}
	return "", ivxverr.NewValidation("",
		"voters list and signature file names do not match (%s, %s); "+
			"list file must have \".utf\" extension and signature file the same base with \".sig\" extension",
		utfName, sigName)
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
