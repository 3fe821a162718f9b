package facility

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

// State returns the current snapshot. Readers never observe a half-applied transition.
func (s *Service) State(ctx context.Context) (*models.FacilityState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cacheEnabled() {
		if b, ok, err := s.cache.Get(ctx, StateCacheKey); err == nil && ok {
			st := models.NewFacilityState()
			if json.Unmarshal(b, st) == nil {
				st.Normalize()
				return st, nil
			}
		}
	}

	st, err := s.state.Load(ctx)
	if err != nil {
		return nil, yarderr.Internal(err, "load facility state")
	}
	st.Normalize()
	s.storeCache(ctx, st)
	return st, nil
}

func (s *Service) FindTrailer(ctx context.Context, id string) (*models.Trailer, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	tr, ok := st.Locate(strings.TrimSpace(id))
	if !ok {
		return nil, yarderr.NotFound("trailer %s not found", id)
	}
	return tr, nil
}

// SearchShipped matches shipped trailers by number, carrier, customer or load
// number, newest shipment first. An empty query returns them all.
func (s *Service) SearchShipped(ctx context.Context, q string) ([]*models.Trailer, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]*models.Trailer, 0)
	for i := len(st.ShippedTrailers) - 1; i >= 0; i-- {
		tr := st.ShippedTrailers[i]
		if q == "" || containsAny(q, tr.Number, tr.Carrier, tr.Customer, tr.LoadNumber, tr.ID) {
			out = append(out, tr)
		}
	}
	return out, nil
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *Service) History(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, yarderr.InvalidArgument("from must not be after to")
	}
	entries, err := s.history.Query(ctx, f)
	if err != nil {
		return nil, yarderr.Internal(err, "query history")
	}
	return entries, nil
}

// Timeline returns every retained entry of one trailer, oldest first.
func (s *Service) Timeline(ctx context.Context, trailerID string) ([]*models.HistoryEntry, error) {
	trailerID = strings.TrimSpace(trailerID)
	if trailerID == "" {
		return nil, yarderr.InvalidArgument("trailer id is required")
	}
	entries, err := s.history.Query(ctx, models.HistoryFilter{TrailerID: trailerID, Limit: history.DefaultCapacity})
	if err != nil {
		return nil, yarderr.Internal(err, "query history")
	}
	return history.Timeline(entries, trailerID), nil
}
