// Package facility is the yard state machine. Every mutating operation loads
// the FacilityState document, applies one transition, validates it, saves it
// and appends the resulting history entries, all under one writer lock.
package facility

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/YardBox/internal/broker/messages"
	"github.com/BearBump/YardBox/internal/cache"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
	"github.com/google/uuid"
)

type StateStore interface {
	Load(ctx context.Context) (*models.FacilityState, error)
	Save(ctx context.Context, st *models.FacilityState) error
}

type HistoryStore interface {
	Append(ctx context.Context, entries ...*models.HistoryEntry) error
	Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// StateCacheKey: ключ снапшота состояния в кэше.
const StateCacheKey = "yardbox:state:v1"

type Service struct {
	mu sync.RWMutex

	state   StateStore
	history HistoryStore

	cache    cache.BytesCache
	stateTTL time.Duration

	publisher Publisher
	topic     string

	now   func() time.Time
	newID func() string
}

func New(state StateStore, history HistoryStore) *Service {
	return &Service{
		state:   state,
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// WithCache enables the read-through state snapshot cache. ttl <= 0 disables it.
func (s *Service) WithCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache, s.stateTTL = c, ttl
	return s
}

// WithPublisher publishes every appended history entry to topic. Publishing is best effort.
func (s *Service) WithPublisher(p Publisher, topic string) *Service {
	s.publisher, s.topic = p, topic
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithIDs(newID func() string) *Service {
	s.newID = newID
	return s
}

// mutate runs fn against a fresh copy of the state. Nothing is persisted if fn
// fails. If the history append fails the previous state is written back.
func (s *Service) mutate(ctx context.Context, fn func(t *tx) error) ([]*models.HistoryEntry, error) {
	s.mu.Lock()
	st, entries, err := s.mutateLocked(ctx, fn)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	// кэш пишем под локом, иначе старый снимок может перезаписать новый
	s.storeCache(ctx, st)
	s.mu.Unlock()

	s.publish(ctx, entries)
	return entries, nil
}

func (s *Service) mutateLocked(ctx context.Context, fn func(t *tx) error) (*models.FacilityState, []*models.HistoryEntry, error) {
	st, err := s.state.Load(ctx)
	if err != nil {
		return nil, nil, yarderr.Internal(err, "load facility state")
	}
	st.Normalize()
	prev := st.Clone()

	t := &tx{st: st, now: s.now(), newID: s.newID}
	if err := fn(t); err != nil {
		return nil, nil, err
	}
	if err := st.Validate(); err != nil {
		slog.Error("facility invariant violated, transition discarded", "error", err.Error())
		return nil, nil, yarderr.Internal(err, "facility invariant violated")
	}

	if err := s.state.Save(ctx, st); err != nil {
		return nil, nil, yarderr.Internal(err, "save facility state")
	}
	if len(t.entries) > 0 {
		if err := s.history.Append(ctx, t.entries...); err != nil {
			if rbErr := s.state.Save(ctx, prev); rbErr != nil {
				slog.Error("restore facility state after history failure", "error", rbErr.Error())
			}
			s.dropCache(ctx)
			return nil, nil, yarderr.Internal(err, "append history")
		}
	}
	return st, t.entries, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.stateTTL > 0
}

func (s *Service) storeCache(ctx context.Context, st *models.FacilityState) {
	if !s.cacheEnabled() {
		return
	}
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, StateCacheKey, b, s.stateTTL); err != nil {
		slog.Warn("state cache set failed", "error", err.Error())
		s.dropCache(ctx)
	}
}

func (s *Service) dropCache(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Del(ctx, StateCacheKey); err != nil {
		slog.Warn("state cache del failed", "error", err.Error())
	}
}

func (s *Service) publish(ctx context.Context, entries []*models.HistoryEntry) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	for _, e := range entries {
		msg := messages.NewHistoryRecorded(e, s.now())
		b, err := msg.Encode()
		if err != nil {
			slog.Warn("encode history event", "entry_id", e.ID, "error", err.Error())
			continue
		}
		if err := s.publisher.Publish(ctx, s.topic, msg.Key(), b); err != nil {
			slog.Warn("publish history event", "entry_id", e.ID, "action", e.Action, "error", err.Error())
		}
	}
}
