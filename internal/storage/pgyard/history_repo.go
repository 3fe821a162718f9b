package pgyard

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Append inserts entries in order and trims the table to the newest historyCap rows.
func (s *Storage) Append(ctx context.Context, entries ...*models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return errors.Wrap(err, "encode history entry")
		}
		assigned := ""
		if e.AssignedFromQueue != nil {
			assigned = e.AssignedFromQueue.TrailerID
		}
		_, err = tx.Exec(ctx, `
INSERT INTO history_entries (id, ts, action, trailer_id, assigned_trailer_id, search_text, payload)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, e.ID, e.Timestamp.UTC(), string(e.Action), e.TrailerID, assigned, history.SearchText(e), payload)
		if err != nil {
			return errors.Wrap(err, "insert history entry")
		}
	}

	_, err = tx.Exec(ctx, `
DELETE FROM history_entries
WHERE seq <= (SELECT seq FROM history_entries ORDER BY seq DESC OFFSET $1 LIMIT 1)
`, s.historyCap)
	if err != nil {
		return errors.Wrap(err, "trim history")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.From != nil {
		where = append(where, "ts >= "+arg(f.From.UTC()))
	}
	if f.To != nil {
		where = append(where, "ts <= "+arg(f.To.UTC()))
	}
	if f.TrailerID != "" {
		p := arg(f.TrailerID)
		where = append(where, "(trailer_id = "+p+" OR assigned_trailer_id = "+p+")")
	}
	if len(f.Actions) > 0 {
		actions := make([]string, 0, len(f.Actions))
		for _, a := range f.Actions {
			actions = append(actions, string(a))
		}
		where = append(where, "action = ANY("+arg(actions)+")")
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		where = append(where, "strpos(search_text, "+arg(q)+") > 0")
	}

	sql := `SELECT payload FROM history_entries`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY seq DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select history")
	}
	defer rows.Close()

	out := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scan history entry")
		}
		var e models.HistoryEntry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "decode history entry")
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
