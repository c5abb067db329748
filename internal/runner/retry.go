// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ClearUnit removes a unit's output directory so the next run rebuilds it
// from scratch. Output directories are relative to the project root;
// anything that could reach outside it is refused.
func ClearUnit(outputDir string) error {
	clean := filepath.Clean(outputDir)
	if clean == "" || clean == "." {
		return fmt.Errorf("refusing to clear %q", outputDir)
	}
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to clear %q: not inside the project root", outputDir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("clearing %s: %w", clean, err)
	}
	return nil
}
