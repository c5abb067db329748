// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ResolutionError reports a unit whose input pattern matched nothing.
type ResolutionError struct {
	UnitID  string
	Pattern string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unit %s: no input matches %q", e.UnitID, e.Pattern)
}

// ResolveInput expands a unit's glob pattern under dir and picks the
// lexicographically first match. Split inputs sort with the preferred
// file first, so ordering is the selection rule, not a tiebreak.
func ResolveInput(dir, pattern, unitID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("unit %s: bad input pattern %q: %w", unitID, pattern, err)
	}
	if len(matches) == 0 {
		return "", &ResolutionError{UnitID: unitID, Pattern: pattern}
	}
	sort.Strings(matches)
	return matches[0], nil
}
