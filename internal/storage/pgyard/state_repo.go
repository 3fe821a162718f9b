package pgyard

import (
	"context"
	"encoding/json"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) Load(ctx context.Context) (*models.FacilityState, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM facility_state WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewFacilityState(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select facility state")
	}

	st := models.NewFacilityState()
	if err := json.Unmarshal(doc, st); err != nil {
		return nil, errors.Wrap(err, "decode facility state")
	}
	st.Normalize()
	return st, nil
}

func (s *Storage) Save(ctx context.Context, st *models.FacilityState) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode facility state")
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO facility_state (id, document, updated_at)
VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
`, doc)
	if err != nil {
		return errors.Wrap(err, "upsert facility state")
	}
	return nil
}
