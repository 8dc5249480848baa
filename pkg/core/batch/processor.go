// Package batch runs statement extraction over a set of resolved source
// files in bounded concurrent batches, so a directory of thousands of
// filings never holds more than one batch worth of file handles open.
package batch

import (
	"context"
	"fmt"
	"sync"

	"finrep/pkg/core/extract"
	"finrep/pkg/models"
)

// DefaultBatchSize bounds how many targets are extracted concurrently.
const DefaultBatchSize = 50

// Target is one unit of extraction work: a single statement file, or a
// balance-sheet/income-statement pair that merges into one record.
type Target struct {
	EntityCode string
	// Paths holds one path for single-form targets, two for pairs
	// (balance sheet first, income statement second).
	Paths []string
}

// Result carries every successfully extracted record plus the tally.
type Result struct {
	Records   []*models.StatementRecord
	Succeeded int
	Failed    int
}

// Processor walks targets in order, batch by batch. Each batch is fully
// settled before the next one starts.
type Processor struct {
	extractor extract.Extractor
	batchSize int
}

func NewProcessor(extractor extract.Extractor, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{extractor: extractor, batchSize: batchSize}
}

// Run extracts every target. A failing target is logged and counted but
// never aborts the run; only a cancelled context stops processing early.
func (p *Processor) Run(ctx context.Context, targets []Target) (*Result, error) {
	res := &Result{}
	total := len(targets)

	for start := 0; start < total; start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := start + p.batchSize
		if end > total {
			end = total
		}
		chunk := targets[start:end]

		// Per-slot results: each goroutine owns one index, no mutex needed.
		records := make([]*models.StatementRecord, len(chunk))
		errs := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, tgt := range chunk {
			wg.Add(1)
			go func(i int, tgt Target) {
				defer wg.Done()
				records[i], errs[i] = p.processTarget(ctx, tgt)
			}(i, tgt)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				fmt.Printf("[BATCH] Extraction failed: %v\n", err)
				res.Failed++
				continue
			}
			res.Records = append(res.Records, records[i])
			res.Succeeded++
		}
		fmt.Printf("[BATCH] Processed %d/%d targets\n", end, total)
	}

	fmt.Printf("[BATCH] Done: %d succeeded, %d failed\n", res.Succeeded, res.Failed)
	return res, nil
}

// processTarget extracts one target. For a pair both forms are extracted
// concurrently; either failure fails the whole pair, since a half-merged
// record would silently report zeros for one form's line items.
func (p *Processor) processTarget(ctx context.Context, tgt Target) (*models.StatementRecord, error) {
	switch len(tgt.Paths) {
	case 1:
		rec, err := p.extractor.Extract(ctx, tgt.Paths[0])
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", tgt.EntityCode, err)
		}
		return rec, nil
	case 2:
		records := make([]*models.StatementRecord, 2)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, path := range tgt.Paths {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				records[i], errs[i] = p.extractor.Extract(ctx, path)
			}(i, path)
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("entity %s form %d: %w", tgt.EntityCode, i+1, err)
			}
		}
		// Income statement merges last so its values win any collision.
		records[0].Merge(records[1])
		return records[0], nil
	default:
		return nil, fmt.Errorf("entity %s: target has %d paths, want 1 or 2", tgt.EntityCode, len(tgt.Paths))
	}
}
