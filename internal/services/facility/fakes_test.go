package facility

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/BearBump/YardBox/internal/models"
)

type memState struct {
	mu      sync.Mutex
	st      *models.FacilityState
	loadErr error
	saves   int
}

func newMemState() *memState {
	return &memState{st: models.NewFacilityState()}
}

func (m *memState) Load(ctx context.Context) (*models.FacilityState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.st.Clone(), nil
}

func (m *memState) Save(ctx context.Context, st *models.FacilityState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st.Clone()
	m.saves++
	return nil
}

type memHistory struct {
	mu  sync.Mutex
	log *history.Log
	err error
}

func newMemHistory() *memHistory {
	return &memHistory{log: history.NewLog(history.DefaultCapacity)}
}

func (m *memHistory) Append(ctx context.Context, entries ...*models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.log.Push(entries...)
	return nil
}

func (m *memHistory) Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return history.Apply(m.log.Entries(), f), nil
}

func (m *memHistory) all() []*models.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.log.Entries()
}

var errBoom = errors.New("boom")

// blockingCache holds the first Set until release is closed.
type blockingCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	entered chan struct{}
	release chan struct{}
}

func newBlockingCache() *blockingCache {
	return &blockingCache{
		data:    map[string][]byte{},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *blockingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *blockingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	first := c.sets == 1
	c.mu.Unlock()
	if first {
		close(c.entered)
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *blockingCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// stepClock advances by one second on every call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}
