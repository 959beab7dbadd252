package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// Stats holds history database statistics.
type Stats struct {
	DBPath      string  `json:"db_path"`
	DBSizeBytes int64   `json:"db_size_bytes"`
	Commands    int     `json:"commands"`
	Failed      int     `json:"failed"`
	FirstStart  float64 `json:"first_start,omitempty"`
	LastStart   float64 `json:"last_start,omitempty"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (st *Stats, err error) {
	start := time.Now()
	defer func() { s.observe("stats", time.Since(start), err) }()

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := ensureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: ensure schema: %w", ErrStorageRead, err)
	}

	st = &Stats{DBPath: s.path}
	var first, last sql.NullFloat64
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(rtn != 0), 0), MIN(tsb), MAX(tsb)
		FROM xonsh_history`).Scan(&st.Commands, &st.Failed, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %w", ErrStorageRead, err)
	}
	st.FirstStart = first.Float64
	st.LastStart = last.Float64

	// DB file size
	if info, statErr := os.Stat(s.path); statErr == nil {
		st.DBSizeBytes = info.Size()
	}

	return st, nil
}
