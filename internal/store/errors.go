package store

import "errors"

var (
	// ErrStorageUnavailable means the data directory or database file could not be opened.
	ErrStorageUnavailable = errors.New("history storage unavailable")
	// ErrStorageWrite means an insert or commit failed; nothing was recorded.
	ErrStorageWrite = errors.New("history write failed")
	// ErrStorageRead means a query over the history table failed.
	ErrStorageRead = errors.New("history read failed")
	// ErrStreamConsumed is yielded when a history sequence is ranged over twice.
	ErrStreamConsumed = errors.New("history sequence already consumed")
)
