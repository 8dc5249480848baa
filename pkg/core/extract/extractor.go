// Package extract is the statement-content boundary: it turns one resolved
// file path into a canonical StatementRecord. Everything upstream treats this
// as an opaque collaborator that either produces a record or fails.
package extract

import (
	"context"

	"finrep/pkg/models"
)

// Extractor produces the raw statement record behind a resolved file.
// Implementations must be safe for concurrent use: the batch processor calls
// Extract from many goroutines at once.
type Extractor interface {
	Extract(ctx context.Context, path string) (*models.StatementRecord, error)
}

// Func adapts a plain function to the Extractor interface (used by tests and
// by callers that wrap extraction with retries or timeouts).
type Func func(ctx context.Context, path string) (*models.StatementRecord, error)

// Extract implements Extractor.
func (f Func) Extract(ctx context.Context, path string) (*models.StatementRecord, error) {
	return f(ctx, path)
}
