// Package storage declares the persistence ports of the yard: the facility
// state document, the bounded history log and the daily analytics cache.
package storage

import (
	"context"

	"github.com/BearBump/YardBox/internal/models"
)

// StateStore reads and writes the whole FacilityState document.
type StateStore interface {
	Load(ctx context.Context) (*models.FacilityState, error)
	Save(ctx context.Context, st *models.FacilityState) error
}

// HistoryStore is append-only with bounded retention; Query returns newest-first.
type HistoryStore interface {
	Append(ctx context.Context, entries ...*models.HistoryEntry) error
	Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error)
}

// AnalyticsStore keeps DailyStat records keyed by ISO date.
type AnalyticsStore interface {
	GetDaily(ctx context.Context, date string) (*models.DailyStat, error)
	SetDaily(ctx context.Context, stat *models.DailyStat) error
	ListDaily(ctx context.Context, from, to string) ([]*models.DailyStat, error)
	// PruneOlderThan deletes every record dated strictly before cutoff.
	PruneOlderThan(ctx context.Context, cutoff string) (int, error)
}

type Store interface {
	StateStore
	HistoryStore
	AnalyticsStore
	Close() error
}
