package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WriteRun inserts a lift run record. Assigns the run a uuid and timestamp if
// unset, and returns the ID. Duplicate IDs are silently ignored so retried
// writes stay idempotent.
func (s *Store) WriteRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	patched := 0
	if run.Patched {
		patched = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lift_runs
		(id, created_at, name, addr, bytes, selector, patched, status, unoptimized_ir, optimized_ir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339Nano),
		run.Name,
		int64(run.Addr),
		run.Bytes,
		run.Selector,
		patched,
		run.Status,
		run.UnoptimizedIR,
		run.OptimizedIR,
	)
	if err != nil {
		return "", fmt.Errorf("write lift run: %w", err)
	}
	return run.ID, nil
}
