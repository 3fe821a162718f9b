package pgyard

import (
	"context"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Storage struct {
	db         *pgxpool.Pool
	historyCap int
}

func New(connString string, historyCap int) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	if historyCap <= 0 {
		historyCap = history.DefaultCapacity
	}
	s := &Storage{db: db, historyCap: historyCap}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
