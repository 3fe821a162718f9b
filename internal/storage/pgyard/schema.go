package pgyard

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS facility_state (
  id SMALLINT PRIMARY KEY DEFAULT 1,
  document JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  CHECK (id = 1)
)`,
		`
CREATE TABLE IF NOT EXISTS history_entries (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  ts TIMESTAMPTZ NOT NULL,
  action TEXT NOT NULL,
  trailer_id TEXT NOT NULL DEFAULT '',
  assigned_trailer_id TEXT NOT NULL DEFAULT '',
  search_text TEXT NOT NULL DEFAULT '',
  payload JSONB NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_history_entries_ts ON history_entries(ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_history_entries_trailer_id ON history_entries(trailer_id)`,
		`
CREATE TABLE IF NOT EXISTS daily_stats (
  date DATE PRIMARY KEY,
  payload JSONB NOT NULL,
  calculated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
