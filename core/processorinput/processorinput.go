// Package processorinput builds the input bundle handed off to the
// downstream vote-counting processor application (spec.md §4.8
// "download-processor-input", §1 "a separate processor application is fed by
// this control plane; only the input-bundle format is specified"): the
// district list, every voter-list changeset with its signature or skip
// marker, and a generated processor.yaml tying it together. The election's
// TSP-reg qualification public key is not added: tspRegPublicKeyPath always
// returns an empty path.
package processorinput

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/store"
)

// Builder assembles the bundle from the database and the active-config
// symlink directory; it performs no network or SSH calls.
type Builder struct {
	DB        *store.T
	ActiveDir string
}

type manifest struct {
	Election        string   `yaml:"election"`
	Districts       string   `yaml:"districts"`
	VoterListCount  int      `yaml:"voter-list-count"`
	VoterLists      []string `yaml:"voter-lists"`
	TSPRegPublicKey string   `yaml:"tspreg-public-key,omitempty"`
}

// Build writes the ZIP bundle to w.
func (b *Builder) Build(w io.Writer) error {
	rows, err := b.DB.All("")
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	defer zw.Close()

	districtsFile, err := b.resolveActive(commandfile.TypeDistricts, 0)
	if err != nil {
		return err
	}
	if districtsFile != "" {
		if err := copyFileInto(zw, "districts.json", districtsFile); err != nil {
			return err
		}
	}

	m := manifest{Election: rows[dbkey.Election("election-id")]}
	if districtsFile != "" {
		m.Districts = "districts.json"
	}

	for _, n := range pendingAndAppliedChangesets(rows) {
		voterFile, err := b.resolveActive(commandfile.TypeVoters, n)
		if err != nil {
			return err
		}
		if voterFile == "" {
			continue
		}
		name := fmt.Sprintf("voters%04d.bdoc", n)
		if err := copyFileInto(zw, name, voterFile); err != nil {
			return err
		}
		m.VoterLists = append(m.VoterLists, name)
	}
	m.VoterListCount = len(m.VoterLists)

	if path := tspRegPublicKeyPath(rows); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := copyFileInto(zw, "tspreg-pubkey.pem", path); err != nil {
				return err
			}
			m.TSPRegPublicKey = "tspreg-pubkey.pem"
		}
	}

	yamlBytes, err := yaml.Marshal(&m)
	if err != nil {
		return errors.Wrap(err, "marshal processor.yaml")
	}
	yw, err := zw.Create("processor.yaml")
	if err != nil {
		return errors.Wrap(err, "create processor.yaml entry")
	}
	if _, err := yw.Write(yamlBytes); err != nil {
		return errors.Wrap(err, "write processor.yaml")
	}
	return nil
}

// tspRegPublicKeyPath is a placeholder lookup: the pack's retained schema
// (core/configschema) only carries the qualification *method*, not a
// filesystem path to its public key, so this returns empty unless a future
// schema revision adds one. Left as a named extension point rather than
// silently omitting the manifest field.
func tspRegPublicKeyPath(rows map[string]string) string { return "" }

func pendingAndAppliedChangesets(rows map[string]string) []int {
	var out []int
	for k, v := range rows {
		if !strings.HasPrefix(k, "list/voters") || strings.Contains(k, "-") {
			continue
		}
		if v == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimPrefix(k, "list/voters"), "%04d", &n); err != nil {
			continue
		}
		state := rows[dbkey.VoterList(n, "state")]
		if state == "INVALID" {
			continue
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// resolveActive follows the active-directory symlink for (t, voterListNo) to
// its command-history target, returning "" if no active link exists yet.
func (b *Builder) resolveActive(t commandfile.Type, voterListNo int) (string, error) {
	active := commandfile.ActivePath(b.ActiveDir, t, voterListNo)
	target, err := os.Readlink(active)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "readlink %s", active)
	}
	return target, nil
}

func copyFileInto(zw *zip.Writer, name, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrapf(err, "open %s", srcPath)
	}
	defer src.Close()
	dst, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create zip entry %s", name)
	}
	_, err = io.Copy(dst, src)
	return errors.Wrapf(err, "copy %s into bundle", srcPath)
}
