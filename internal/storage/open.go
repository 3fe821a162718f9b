package storage

import (
	"context"
	"path/filepath"

	"github.com/BearBump/YardBox/config"
	"github.com/BearBump/YardBox/internal/storage/docstore"
	"github.com/BearBump/YardBox/internal/storage/pgyard"
	"github.com/pkg/errors"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverS3       = "s3"
	DriverPostgres = "postgres"

	defaultDataDir = "./data"
)

var (
	_ Store = (*docstore.Store)(nil)
	_ Store = (*pgyard.Storage)(nil)
)

// Open builds the store selected by cfg.Storage.Driver (file by default).
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	sc := cfg.Storage
	dataDir := sc.DataDir
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	switch sc.Driver {
	case "", DriverFile:
		blobs, err := docstore.NewFSBlobs(dataDir)
		if err != nil {
			return nil, err
		}
		return docstore.New(blobs, sc.HistoryCapacity), nil
	case DriverSQLite:
		path := sc.SQLitePath
		if path == "" {
			path = filepath.Join(dataDir, "yardbox.db")
		}
		blobs, err := docstore.NewSQLiteBlobs(path)
		if err != nil {
			return nil, err
		}
		return docstore.New(blobs, sc.HistoryCapacity), nil
	case DriverS3:
		blobs, err := docstore.NewS3Blobs(ctx, docstore.S3Config{
			Bucket:    sc.S3Bucket,
			Region:    sc.S3Region,
			Endpoint:  sc.S3Endpoint,
			Prefix:    sc.S3Prefix,
			PathStyle: sc.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return docstore.New(blobs, sc.HistoryCapacity), nil
	case DriverPostgres:
		return pgyard.New(cfg.Database.ConnString(), sc.HistoryCapacity)
	default:
		return nil, errors.Errorf("unknown storage driver %q", sc.Driver)
	}
}
