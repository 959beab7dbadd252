// Package store provides the command-history storage interface and SQLite implementation.
package store

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/rcliao/xhist/internal/model"
)

// Options configures a history store. Values are resolved by the caller;
// the store never reads the process environment.
type Options struct {
	DataDir  string          // absolute path of the data directory (must exist)
	Controls []model.Control // history-control flags
	Logger   *slog.Logger    // nil discards
	Observe  func(Observation)
}

// Observation describes one storage operation. It is handed to
// Options.Observe after the operation finishes.
type Observation struct {
	Op        string
	SessionID string
	Duration  time.Duration
	Err       error
}

// Store defines the command-history interface.
type Store interface {
	// Append records a command unless the history-control policy suppresses
	// it. Reports whether the record was stored.
	Append(ctx context.Context, rec model.CommandRecord) (bool, error)

	// Items returns stored inputs oldest first. The sequence can be ranged
	// over once; call Items again to re-read.
	Items(ctx context.Context) iter.Seq2[model.Item, error]

	// Records is like Items but yields full records.
	Records(ctx context.Context) iter.Seq2[model.CommandRecord, error]

	// Flush is called by the shell on sync points and at exit.
	Flush(ctx context.Context, atExit bool) error
}
