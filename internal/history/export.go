// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// Export bundles everything the database holds for external analysis.
type Export struct {
	Runs     []RunRecord     `json:"runs" yaml:"runs"`
	Attempts []AttemptRecord `json:"attempts" yaml:"attempts"`
}

// ExportYAML writes the full run history to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	export, err := s.exportAll(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(export)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the full run history to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	export, err := s.exportAll(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportAll(ctx context.Context) (Export, error) {
	runs, err := s.ListRuns(ctx, exportLimit)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	attempts, err := s.ListAttempts(ctx, QueryOptions{Limit: exportLimit})
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	return Export{Runs: runs, Attempts: attempts}, nil
}
