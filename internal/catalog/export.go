// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mission-copilot/pkg/types"
)

// ExportYAML writes the studies matching q to w as a YAML list that
// LoadYAML reads back.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, q types.StudyQuery) error {
	studies, err := s.exportStudies(ctx, q)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(studies); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the studies matching q to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, q types.StudyQuery) error {
	studies, err := s.exportStudies(ctx, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(studies); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportStudies(ctx context.Context, q types.StudyQuery) ([]types.Study, error) {
	q.Limit = 0
	studies, err := s.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if studies == nil {
		studies = []types.Study{}
	}
	return studies, nil
}
