package facility

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

type CarrierPatch struct {
	MCNumber *string
	Favorite *bool
}

func carrierEntry(action models.Action, c *models.Carrier) *models.HistoryEntry {
	return &models.HistoryEntry{Action: action, Carrier: c.Name}
}

func (s *Service) CreateCarrier(ctx context.Context, name, mcNumber string) (*models.Carrier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, yarderr.InvalidArgument("carrier name is required")
	}
	var out *models.Carrier
	_, err := s.mutate(ctx, func(t *tx) error {
		if _, ok := t.st.CarrierByName(name); ok {
			return yarderr.Conflict("carrier %s already exists", name)
		}
		c := &models.Carrier{ID: t.newID(), Name: name, MCNumber: strings.TrimSpace(mcNumber), CreatedAt: t.now}
		t.st.Carriers = append(t.st.Carriers, c)
		t.record(carrierEntry(models.ActionCarrierCreated, c))
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) UpdateCarrier(ctx context.Context, id string, p CarrierPatch) (*models.Carrier, error) {
	var out *models.Carrier
	_, err := s.mutate(ctx, func(t *tx) error {
		c, err := t.carrier(id)
		if err != nil {
			return err
		}
		var changes []models.FieldChange
		if p.MCNumber != nil {
			if mc := strings.TrimSpace(*p.MCNumber); mc != c.MCNumber {
				changes = append(changes, models.FieldChange{Field: "mcNumber", From: c.MCNumber, To: mc})
				c.MCNumber = mc
			}
		}
		if p.Favorite != nil && *p.Favorite != c.Favorite {
			changes = append(changes, models.FieldChange{Field: "favorite", From: strconv.FormatBool(c.Favorite), To: strconv.FormatBool(*p.Favorite)})
			c.Favorite = *p.Favorite
		}
		out = c
		if len(changes) == 0 {
			return nil
		}
		e := carrierEntry(models.ActionCarrierUpdated, c)
		e.Changes = changes
		t.record(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCarrier refuses while any active trailer still uses the carrier.
func (s *Service) DeleteCarrier(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, func(t *tx) error {
		c, err := t.carrier(id)
		if err != nil {
			return err
		}
		for _, tr := range t.st.ActiveTrailers() {
			if tr.CarrierID == c.ID || strings.EqualFold(tr.Carrier, c.Name) {
				return yarderr.Conflict("carrier %s is used by trailer %s", c.Name, tr.DisplayName())
			}
		}
		for i, x := range t.st.Carriers {
			if x.ID == c.ID {
				t.st.Carriers = append(t.st.Carriers[:i:i], t.st.Carriers[i+1:]...)
				break
			}
		}
		t.record(carrierEntry(models.ActionCarrierDeleted, c))
		return nil
	})
	return err
}

// ListCarriers returns favorites first, then by usage, then by name.
func (s *Service) ListCarriers(ctx context.Context) ([]*models.Carrier, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]*models.Carrier(nil), st.Carriers...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Favorite != b.Favorite {
			return a.Favorite
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out, nil
}

func (t *tx) carrier(id string) (*models.Carrier, error) {
	for _, c := range t.st.Carriers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, yarderr.NotFound("carrier %s not found", id)
}
