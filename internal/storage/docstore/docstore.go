// Package docstore keeps the facility state, the history log and the daily
// analytics as three JSON documents in a pluggable blob backend.
package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/pkg/errors"
)

const (
	stateKey     = "state.json"
	historyKey   = "history.json"
	analyticsKey = "analytics.json"
)

// Blobs is a flat key/value byte store. Put must replace the value atomically.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

type Store struct {
	blobs      Blobs
	historyCap int

	// history и analytics это read-modify-write, сериализуем их здесь.
	mu sync.Mutex
}

func New(blobs Blobs, historyCap int) *Store {
	if historyCap <= 0 {
		historyCap = history.DefaultCapacity
	}
	return &Store{blobs: blobs, historyCap: historyCap}
}

func (s *Store) Close() error {
	return s.blobs.Close()
}

func (s *Store) Load(ctx context.Context) (*models.FacilityState, error) {
	st := models.NewFacilityState()
	ok, err := s.read(ctx, stateKey, st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return models.NewFacilityState(), nil
	}
	st.Normalize()
	return st, nil
}

func (s *Store) Save(ctx context.Context, st *models.FacilityState) error {
	return s.write(ctx, stateKey, st)
}

func (s *Store) Append(ctx context.Context, entries ...*models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readHistory(ctx)
	if err != nil {
		return err
	}
	log := history.FromNewestFirst(s.historyCap, current)
	log.Push(entries...)
	return s.write(ctx, historyKey, log.Entries())
}

func (s *Store) Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	entries, err := s.readHistory(ctx)
	if err != nil {
		return nil, err
	}
	return history.Apply(entries, f), nil
}

func (s *Store) GetDaily(ctx context.Context, date string) (*models.DailyStat, error) {
	all, err := s.readAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	return all[date], nil
}

func (s *Store) SetDaily(ctx context.Context, stat *models.DailyStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAnalytics(ctx)
	if err != nil {
		return err
	}
	all[stat.Date] = stat
	return s.write(ctx, analyticsKey, all)
}

func (s *Store) ListDaily(ctx context.Context, from, to string) ([]*models.DailyStat, error) {
	all, err := s.readAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.DailyStat, 0, len(all))
	for date, stat := range all {
		// ISO даты сравниваются как строки
		if date >= from && date <= to {
			out = append(out, stat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Store) PruneOlderThan(ctx context.Context, cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAnalytics(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for date := range all {
		if date < cutoff {
			delete(all, date)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.write(ctx, analyticsKey, all)
}

func (s *Store) readHistory(ctx context.Context) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	if _, err := s.read(ctx, historyKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) readAnalytics(ctx context.Context) (map[string]*models.DailyStat, error) {
	all := map[string]*models.DailyStat{}
	if _, err := s.read(ctx, analyticsKey, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]*models.DailyStat{}
	}
	return all, nil
}

func (s *Store) read(ctx context.Context, key string, dst any) (bool, error) {
	b, ok, err := s.blobs.Get(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", key)
	}
	if !ok || len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := s.blobs.Put(ctx, key, b); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}
