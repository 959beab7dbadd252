package store

import (
	"context"

	"github.com/rcliao/xhist/internal/model"
)

// Export returns every stored record ordered by start time.
func (s *SQLiteStore) Export(ctx context.Context) ([]model.CommandRecord, error) {
	records := []model.CommandRecord{}
	for rec, err := range s.Records(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Import appends records from an export. History controls apply, so with
// ignoredups adjacent repeats are skipped. Returns the number stored.
func (s *SQLiteStore) Import(ctx context.Context, records []model.CommandRecord) (int, error) {
	imported := 0
	for _, rec := range records {
		ok, err := s.Append(ctx, rec)
		if err != nil {
			return imported, err
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}
