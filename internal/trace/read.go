package trace

import (
	"context"
	"fmt"
	"time"
)

// ListRuns returns recorded lift runs in insertion order. limit <= 0 means
// no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, name, addr, bytes, selector, patched, status, unoptimized_ir, optimized_ir
		FROM lift_runs
		ORDER BY rowid ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lift runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run       Run
			createdAt string
			addr      int64
			patched   int
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Name, &addr, &run.Bytes,
			&run.Selector, &patched, &run.Status, &run.UnoptimizedIR, &run.OptimizedIR); err != nil {
			return nil, fmt.Errorf("scan lift run: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse lift run timestamp: %w", err)
		}
		run.CreatedAt = ts
		run.Addr = uint64(addr)
		run.Patched = patched != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lift runs: %w", err)
	}
	return runs, nil
}
