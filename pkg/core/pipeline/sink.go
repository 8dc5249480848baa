package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSink writes the run's reports to a single JSON artifact, ordered
// as produced (by entity code).
type FileSink struct {
	Path string
}

func (s *FileSink) Save(_ context.Context, reports []EntityReport) error {
	buf, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}
	if err := os.WriteFile(s.Path, buf, 0644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", s.Path, err)
	}
	fmt.Printf("[PIPELINE] Wrote %d reports to %s\n", len(reports), s.Path)
	return nil
}
