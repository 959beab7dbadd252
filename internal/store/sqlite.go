package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/xhist/internal/model"
)

// DBFileName is the history database file inside the data directory.
const DBFileName = "xonsh-history.sqlite"

const (
	schemaSQL = `
	CREATE TABLE IF NOT EXISTS xonsh_history
		(inp TEXT,
		 rtn INTEGER,
		 tsb REAL,
		 tse REAL
		)`
	insertSQL  = `INSERT INTO xonsh_history VALUES (?, ?, ?, ?)`
	itemsSQL   = `SELECT inp FROM xonsh_history ORDER BY tsb`
	recordsSQL = `SELECT inp, rtn, tsb, tse FROM xonsh_history ORDER BY tsb`
)

// SQLiteStore implements Store on top of a SQLite file shared with other
// shell sessions. No connection is held between calls.
type SQLiteStore struct {
	dataDir   string
	path      string
	sessionID string
	logger    *slog.Logger
	hook      func(Observation)

	mu     sync.Mutex // serializes Append and guards policy
	policy *policy
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store for the history file in opts.DataDir.
// Storage is not touched until the first operation.
func NewSQLiteStore(opts Options) (*SQLiteStore, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if !filepath.IsAbs(opts.DataDir) {
		return nil, fmt.Errorf("data dir must be absolute: %s", opts.DataDir)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &SQLiteStore{
		dataDir:   opts.DataDir,
		path:      filepath.Join(opts.DataDir, DBFileName),
		sessionID: ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String(),
		logger:    logger,
		hook:      opts.Observe,
		policy:    newPolicy(opts.Controls),
	}, nil
}

// Path returns the location of the history database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// SessionID identifies this store handle in logs and observations.
func (s *SQLiteStore) SessionID() string {
	return s.sessionID
}

// open returns a handle scoped to a single operation. The caller must Close it.
func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	info, err := os.Stat(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: data dir: %w", ErrStorageUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: data dir %s is not a directory", ErrStorageUnavailable, s.dataDir)
	}

	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, s.path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, s.path, err)
	}
	return db, nil
}

// dsn builds a file: URI so characters like '?' and '#' in the data dir stay
// part of the path instead of starting the query string.
func dsn(path string) string {
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?_pragma=busy_timeout(5000)&_txlock=immediate"
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureSchema(ctx context.Context, db execer) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// Append stores rec unless a history control suppresses it. Session state
// only advances once the row is committed, so a failed append can be retried.
func (s *SQLiteStore) Append(ctx context.Context, rec model.CommandRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := rec.TrimmedInput()
	if c, skip := s.policy.suppress(input, rec.ReturnCode); skip {
		s.logger.Debug("history append skipped", "session", s.sessionID, "control", string(c))
		return false, nil
	}

	start := time.Now()
	err := s.insert(ctx, encode(rec))
	s.observe("append", time.Since(start), err)
	if err != nil {
		return false, err
	}

	s.policy.accept(input)
	return true, nil
}

func (s *SQLiteStore) insert(ctx context.Context, r row) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStorageWrite, err)
	}
	defer tx.Rollback()

	if err := ensureSchema(ctx, tx); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", ErrStorageWrite, err)
	}
	if _, err := tx.ExecContext(ctx, insertSQL, r.args()...); err != nil {
		return fmt.Errorf("%w: insert: %w", ErrStorageWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorageWrite, err)
	}
	return nil
}

// Items yields stored inputs ordered by start time. Records with equal
// start times come back in storage order.
func (s *SQLiteStore) Items(ctx context.Context) iter.Seq2[model.Item, error] {
	return stream(ctx, s, "items", itemsSQL, decodeItem)
}

// Records yields full stored records ordered by start time.
func (s *SQLiteStore) Records(ctx context.Context) iter.Seq2[model.CommandRecord, error] {
	return stream(ctx, s, "records", recordsSQL, decodeRecord)
}

// stream runs query lazily on first iteration and yields decoded rows. The
// handle lives until the loop finishes or breaks. A failure is yielded once
// as the final element.
func stream[T any](ctx context.Context, s *SQLiteStore, op, query string, decode func(scanner) (T, error)) iter.Seq2[T, error] {
	var consumed atomic.Bool

	return func(yield func(T, error) bool) {
		var zero T
		if consumed.Swap(true) {
			yield(zero, ErrStreamConsumed)
			return
		}

		start := time.Now()
		n, err := 0, error(nil)
		defer func() { s.observe(op, time.Since(start), err, "rows", n) }()

		db, err := s.open(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		defer db.Close()

		if err = ensureSchema(ctx, db); err != nil {
			err = fmt.Errorf("%w: ensure schema: %w", ErrStorageRead, err)
			yield(zero, err)
			return
		}

		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			err = fmt.Errorf("%w: query: %w", ErrStorageRead, err)
			yield(zero, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			v, scanErr := decode(rows)
			if scanErr != nil {
				err = fmt.Errorf("%w: scan: %w", ErrStorageRead, scanErr)
				yield(zero, err)
				return
			}
			n++
			if !yield(v, nil) {
				return
			}
		}
		if err = rows.Err(); err != nil {
			err = fmt.Errorf("%w: iterate: %w", ErrStorageRead, err)
			yield(zero, err)
		}
	}
}

// Flush has nothing to do: every accepted append is committed before
// Append returns. It exists so shells can call it on exit unconditionally.
func (s *SQLiteStore) Flush(ctx context.Context, atExit bool) error {
	s.logger.Debug("history flush", "session", s.sessionID, "at_exit", atExit)
	return nil
}

func (s *SQLiteStore) observe(op string, d time.Duration, err error, attrs ...any) {
	args := append([]any{"session", s.sessionID, "op", op, "took", d}, attrs...)
	if err != nil {
		args = append(args, "err", err)
	}
	s.logger.Debug("history operation", args...)

	if s.hook != nil {
		s.hook(Observation{Op: op, SessionID: s.sessionID, Duration: d, Err: err})
	}
}
