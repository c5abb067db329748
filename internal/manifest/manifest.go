// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads and validates the work unit manifest.
// See docs/ARCHITECTURE § Manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// Defaults applied to manifests that omit shared settings.
const (
	DefaultInputDir         = "PCM_split"
	DefaultLogPath          = "translation.log"
	DefaultExpectedSections = 18
)

// Default returns the built-in manifest: the source book split into three
// parts, each translated into its own output directory.
func Default() *types.Manifest {
	return &types.Manifest{
		InputDir:         DefaultInputDir,
		LogPath:          DefaultLogPath,
		ExpectedSections: DefaultExpectedSections,
		Units: []types.WorkUnit{
			{ID: "02", InputPattern: "PCM_part_02_*.pdf", OutputDir: "output_part_02", Part: "II"},
			{ID: "03", InputPattern: "PCM_part_03_*.pdf", OutputDir: "output_part_03", Part: "III"},
			{ID: "04", InputPattern: "PCM_part_04_*.pdf", OutputDir: "output_part_04", Part: "IV"},
		},
	}
}

// LoadOrDefault reads the manifest at path, falling back to the built-in
// default when the file does not exist. A present but invalid manifest is
// still an error.
func LoadOrDefault(path string) (*types.Manifest, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Load reads and validates the manifest at path.
func Load(path string) (*types.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	applyDefaults(&m)
	if err := Validate(&m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func applyDefaults(m *types.Manifest) {
	if m.InputDir == "" {
		m.InputDir = DefaultInputDir
	}
	if m.LogPath == "" {
		m.LogPath = DefaultLogPath
	}
	if m.ExpectedSections <= 0 {
		m.ExpectedSections = DefaultExpectedSections
	}
	for i := range m.Units {
		u := &m.Units[i]
		if u.OutputDir == "" && u.ID != "" {
			u.OutputDir = "output_part_" + u.ID
		}
		if u.Part == "" {
			u.Part = PartLabel(u.ID)
		}
	}
}

// Validate checks the structural invariants every manifest must hold:
// unique unit ids, exclusive non-overlapping output directories, and
// well-formed page ranges.
func Validate(m *types.Manifest) error {
	if len(m.Units) == 0 {
		return fmt.Errorf("no units declared")
	}

	seenIDs := make(map[string]bool, len(m.Units))
	seenDirs := make(map[string]string, len(m.Units))

	for _, u := range m.Units {
		if u.ID == "" {
			return fmt.Errorf("unit with empty id")
		}
		if seenIDs[u.ID] {
			return fmt.Errorf("duplicate unit id %q", u.ID)
		}
		seenIDs[u.ID] = true

		if u.InputPattern == "" && u.Pages == nil {
			return fmt.Errorf("unit %s: needs input_pattern or pages", u.ID)
		}
		if u.InputPattern != "" && u.Pages != nil {
			return fmt.Errorf("unit %s: input_pattern and pages are mutually exclusive", u.ID)
		}
		if u.Pages != nil && (u.Pages.Start < 0 || u.Pages.End < u.Pages.Start) {
			return fmt.Errorf("unit %s: invalid page range %d-%d", u.ID, u.Pages.Start, u.Pages.End)
		}

		if u.OutputDir == "" {
			return fmt.Errorf("unit %s: empty output_dir", u.ID)
		}
		dir := filepath.Clean(u.OutputDir)
		for prev, prevID := range seenDirs {
			if dir == prev || isSubdir(prev, dir) || isSubdir(dir, prev) {
				return fmt.Errorf("unit %s: output_dir %q overlaps unit %s", u.ID, u.OutputDir, prevID)
			}
		}
		seenDirs[dir] = u.ID
	}
	return nil
}

// Select returns the units matching ids, in manifest order. Every id must
// name a declared unit.
func Select(m *types.Manifest, ids []string) ([]types.WorkUnit, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var units []types.WorkUnit
	for _, u := range m.Units {
		if wanted[u.ID] {
			units = append(units, u)
			delete(wanted, u.ID)
		}
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for id := range wanted {
			missing = append(missing, id)
		}
		return nil, fmt.Errorf("unknown unit id(s): %s", strings.Join(missing, ", "))
	}
	return units, nil
}

// romanDigits covers values up to 39.
var romanDigits = []struct {
	value  int
	symbol string
}{
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// PartLabel converts a numeric unit id to the Roman part label the
// pipeline expects ("02" becomes "II"). Non-numeric ids pass through.
func PartLabel(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return id
	}
	var b strings.Builder
	for _, d := range romanDigits {
		for n >= d.value {
			b.WriteString(d.symbol)
			n -= d.value
		}
	}
	return b.String()
}

func isSubdir(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
