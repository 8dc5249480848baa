package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finrep/pkg/core/pipeline"
)

// ErrNotFound is returned by Get when no report exists for the key.
var ErrNotFound = errors.New("report not found")

// commitEvery bounds how many upserts ride in one batch round trip.
const commitEvery = 500

// ReportRepo persists entity reports keyed by (period, tin).
//
// Schema:
//
//	CREATE TABLE fin_reports (
//	    period      TEXT NOT NULL,
//	    tin         TEXT NOT NULL,
//	    report_json JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (period, tin)
//	);
type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Save upserts the run's reports in batches. Implements
// pipeline.ReportSink. Rows without a TIN cannot be keyed and are
// skipped with a warning.
func (r *ReportRepo) Save(ctx context.Context, reports []pipeline.EntityReport) error {
	query := `
		INSERT INTO fin_reports (period, tin, report_json, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (period, tin)
		DO UPDATE SET report_json = EXCLUDED.report_json, updated_at = now()
	`

	batch := &pgx.Batch{}
	queued := 0
	for _, rep := range reports {
		if rep.TIN == "" {
			fmt.Printf("[STORE] Warning: skipping report without TIN (period %s)\n", rep.Period)
			continue
		}
		payload, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("encoding report %s/%s: %w", rep.Period, rep.TIN, err)
		}
		batch.Queue(query, rep.Period, rep.TIN, payload)
		queued++

		if batch.Len() >= commitEvery {
			if err := r.flush(ctx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if batch.Len() > 0 {
		if err := r.flush(ctx, batch); err != nil {
			return err
		}
	}
	fmt.Printf("[STORE] Upserted %d reports\n", queued)
	return nil
}

func (r *ReportRepo) flush(ctx context.Context, batch *pgx.Batch) error {
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting report batch (row %d): %w", i, err)
		}
	}
	return nil
}

// Get returns the stored report JSON for one entity and period, or
// ErrNotFound.
func (r *ReportRepo) Get(ctx context.Context, period, tin string) (json.RawMessage, error) {
	query := `
		SELECT report_json
		FROM fin_reports
		WHERE period = $1 AND tin = $2
	`
	var payload []byte
	err := r.pool.QueryRow(ctx, query, period, tin).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s/%s: %w", period, tin, err)
	}
	return payload, nil
}
