package docstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteBlobs keeps documents in a single `state(bucket, payload)` table.
type SQLiteBlobs struct {
	db *sql.DB
}

func NewSQLiteBlobs(path string) (*SQLiteBlobs, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// modernc sqlite не любит конкурентных писателей
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
  bucket TEXT PRIMARY KEY,
  payload BLOB NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init sqlite schema")
	}
	return &SQLiteBlobs{db: db}, nil
}

func (b *SQLiteBlobs) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select payload")
	}
	return payload, true, nil
}

func (b *SQLiteBlobs) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		key, value)
	if err != nil {
		return errors.Wrap(err, "upsert payload")
	}
	return nil
}

func (b *SQLiteBlobs) Close() error {
	return b.db.Close()
}
