package dwell

import (
	"math"
	"sort"
	"time"

	"github.com/BearBump/YardBox/internal/models"
)

const (
	// Cap: потолок эффективного простоя у двери.
	Cap = 6 * time.Hour
	// ViolationThreshold is the dwell at which a docked trailer becomes a violation.
	ViolationThreshold = 2 * time.Hour
)

// EffectiveDwell is the time since the most recent reset within the last Cap,
// or since CreatedAt when there is none, capped at Cap.
func EffectiveDwell(t *models.Trailer, now time.Time) time.Duration {
	start := t.CreatedAt
	var latest time.Time
	for _, r := range t.DwellResets {
		if r.After(now) || now.Sub(r) > Cap {
			continue
		}
		if r.After(latest) {
			latest = r
		}
	}
	if !latest.IsZero() {
		start = latest
	}
	return clamp(now.Sub(start))
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > Cap {
		return Cap
	}
	return d
}

// Violations lists docked trailers whose effective dwell is at least the
// threshold and still below the cap, longest first.
func Violations(st *models.FacilityState, now time.Time) []models.CurrentViolation {
	out := make([]models.CurrentViolation, 0)
	for _, t := range st.DockedTrailers() {
		d := EffectiveDwell(t, now)
		if d < ViolationThreshold || d >= Cap {
			continue
		}
		out = append(out, models.CurrentViolation{
			TrailerID:     t.ID,
			TrailerNumber: t.Number,
			Carrier:       t.Carrier,
			DoorID:        t.DoorID,
			DoorNumber:    t.DoorNumber,
			Since:         now.Add(-d),
			DwellHours:    round2(d.Hours()),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DwellHours > out[j].DwellHours })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
