package pgyard

import (
	"context"
	"encoding/json"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) GetDaily(ctx context.Context, date string) (*models.DailyStat, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM daily_stats WHERE date = $1::date`, date).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select daily stat")
	}
	var stat models.DailyStat
	if err := json.Unmarshal(payload, &stat); err != nil {
		return nil, errors.Wrap(err, "decode daily stat")
	}
	return &stat, nil
}

func (s *Storage) SetDaily(ctx context.Context, stat *models.DailyStat) error {
	payload, err := json.Marshal(stat)
	if err != nil {
		return errors.Wrap(err, "encode daily stat")
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO daily_stats (date, payload, calculated_at)
VALUES ($1::date, $2, $3)
ON CONFLICT (date) DO UPDATE SET payload = EXCLUDED.payload, calculated_at = EXCLUDED.calculated_at
`, stat.Date, payload, stat.CalculatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upsert daily stat")
	}
	return nil
}

func (s *Storage) ListDaily(ctx context.Context, from, to string) ([]*models.DailyStat, error) {
	rows, err := s.db.Query(ctx, `
SELECT payload FROM daily_stats
WHERE date BETWEEN $1::date AND $2::date
ORDER BY date
`, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "select daily stats")
	}
	defer rows.Close()

	out := make([]*models.DailyStat, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(err, "scan daily stat")
		}
		var stat models.DailyStat
		if err := json.Unmarshal(payload, &stat); err != nil {
			return nil, errors.Wrap(err, "decode daily stat")
		}
		out = append(out, &stat)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) PruneOlderThan(ctx context.Context, cutoff string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM daily_stats WHERE date < $1::date`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "prune daily stats")
	}
	return int(tag.RowsAffected()), nil
}
