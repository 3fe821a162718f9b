// Package dwell computes how long trailers stay at dock doors: daily
// aggregates persisted per calendar day and the real-time violation view.
package dwell

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/YardBox/internal/history"
	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

const (
	DefaultRetentionDays = 90
	// MinStayHours: короче этого стоянка считается шумом.
	MinStayHours = 0.1
	maxViolators = 10
	maxRangeDays = 366
)

type HistoryReader interface {
	Query(ctx context.Context, f models.HistoryFilter) ([]*models.HistoryEntry, error)
}

type StateReader interface {
	Load(ctx context.Context) (*models.FacilityState, error)
}

type AnalyticsStore interface {
	GetDaily(ctx context.Context, date string) (*models.DailyStat, error)
	SetDaily(ctx context.Context, stat *models.DailyStat) error
	ListDaily(ctx context.Context, from, to string) ([]*models.DailyStat, error)
	PruneOlderThan(ctx context.Context, cutoff string) (int, error)
}

type Calculator struct {
	history   HistoryReader
	state     StateReader
	analytics AnalyticsStore

	loc           *time.Location
	retentionDays int
	now           func() time.Time
}

func NewCalculator(h HistoryReader, st StateReader, a AnalyticsStore, loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{
		history:       h,
		state:         st,
		analytics:     a,
		loc:           loc,
		retentionDays: DefaultRetentionDays,
		now:           time.Now,
	}
}

func (c *Calculator) WithRetention(days int) *Calculator {
	if days > 0 {
		c.retentionDays = days
	}
	return c
}

func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

func (c *Calculator) Now() time.Time { return c.now().In(c.loc) }

func (c *Calculator) Location() *time.Location { return c.loc }

// DayBounds returns the first and the last second of the local calendar day containing date.
func (c *Calculator) DayBounds(date time.Time) (time.Time, time.Time) {
	d := date.In(c.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Second)
}

// ParseDate parses a YYYY-MM-DD key in the calculator's timezone.
func (c *Calculator) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, s, c.loc)
	if err != nil {
		return time.Time{}, yarderr.InvalidArgument("date must be YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

// Calculate recomputes the aggregate of the day containing date, stores it and
// prunes records older than the retention window.
func (c *Calculator) Calculate(ctx context.Context, date time.Time) (*models.DailyStat, error) {
	dayStart, dayEnd := c.DayBounds(date)

	entries, err := c.history.Query(ctx, models.HistoryFilter{
		From:    &dayStart,
		To:      &dayEnd,
		Actions: []models.Action{models.ActionMovedToDoor, models.ActionMovedToYard, models.ActionTrailerDeleted},
		Limit:   history.DefaultCapacity,
	})
	if err != nil {
		return nil, yarderr.Internal(err, "query history")
	}
	st, err := c.state.Load(ctx)
	if err != nil {
		return nil, yarderr.Internal(err, "load facility state")
	}

	stat := Compute(entries, st, dayStart, dayEnd)
	stat.CalculatedAt = c.now().UTC()
	if err := c.analytics.SetDaily(ctx, stat); err != nil {
		return nil, yarderr.Internal(err, "store daily stat")
	}

	cutoff := c.Now().AddDate(0, 0, -c.retentionDays).Format(models.DateLayout)
	if n, err := c.analytics.PruneOlderThan(ctx, cutoff); err != nil {
		slog.Warn("prune dwell analytics", "cutoff", cutoff, "error", err.Error())
	} else if n > 0 {
		slog.Info("pruned dwell analytics", "cutoff", cutoff, "removed", n)
	}
	return stat, nil
}

// Daily returns the stored aggregate of a day. Today is computed on first request.
func (c *Calculator) Daily(ctx context.Context, date time.Time) (*models.DailyStat, error) {
	key := date.In(c.loc).Format(models.DateLayout)
	stat, err := c.analytics.GetDaily(ctx, key)
	if err != nil {
		return nil, yarderr.Internal(err, "get daily stat")
	}
	if stat != nil {
		return stat, nil
	}
	if key == c.Now().Format(models.DateLayout) {
		return c.Calculate(ctx, date)
	}
	return nil, yarderr.NotFound("no dwell data for %s", key)
}

// Range returns the stored aggregates of the last days days, oldest first.
func (c *Calculator) Range(ctx context.Context, days int) ([]*models.DailyStat, error) {
	if days <= 0 || days > maxRangeDays {
		return nil, yarderr.InvalidArgument("days must be within 1..%d", maxRangeDays)
	}
	today := c.Now()
	from := today.AddDate(0, 0, -(days - 1)).Format(models.DateLayout)
	out, err := c.analytics.ListDaily(ctx, from, today.Format(models.DateLayout))
	if err != nil {
		return nil, yarderr.Internal(err, "list daily stats")
	}
	return out, nil
}

// CurrentViolations is the real-time view over the current state.
func (c *Calculator) CurrentViolations(ctx context.Context) ([]models.CurrentViolation, error) {
	st, err := c.state.Load(ctx)
	if err != nil {
		return nil, yarderr.Internal(err, "load facility state")
	}
	return Violations(st, c.now()), nil
}

type arrival struct {
	at         time.Time
	number     string
	carrier    string
	doorNumber *int
}

type trailerDay struct {
	id         string
	arrivals   []arrival
	departures []time.Time
}

type stay struct {
	v     models.Violator
	hours float64
}

// Compute builds the aggregate of [dayStart, dayEnd] from the day's history
// entries (newest-first, as the log returns them) and the trailers docked right now.
//
// The i-th arrival of a trailer is paired with its i-th departure, or with
// dayEnd when there is none. Trailers docked now without any entry that day
// count from max(createdAt, dayStart) to dayEnd.
func Compute(entries []*models.HistoryEntry, st *models.FacilityState, dayStart, dayEnd time.Time) *models.DailyStat {
	byTrailer := map[string]*trailerDay{}
	var order []string
	get := func(id string) *trailerDay {
		td, ok := byTrailer[id]
		if !ok {
			td = &trailerDay{id: id}
			byTrailer[id] = td
			order = append(order, id)
		}
		return td
	}

	chronological := make([]*models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.TrailerID == "" || e.Timestamp.Before(dayStart) || e.Timestamp.After(dayEnd) {
			continue
		}
		chronological = append(chronological, e)
	}
	sortByTime(chronological)

	for _, e := range chronological {
		switch e.Action {
		case models.ActionMovedToDoor:
			td := get(e.TrailerID)
			td.arrivals = append(td.arrivals, arrival{at: e.Timestamp, number: e.TrailerNumber, carrier: e.Carrier, doorNumber: e.DoorNumber})
		case models.ActionMovedToYard, models.ActionTrailerDeleted:
			td := get(e.TrailerID)
			td.departures = append(td.departures, e.Timestamp)
		}
	}

	var stays []stay
	for _, id := range order {
		td := byTrailer[id]
		for i, a := range td.arrivals {
			dep := dayEnd
			if i < len(td.departures) {
				dep = td.departures[i]
			}
			arr := a.at
			if arr.Before(dayStart) {
				arr = dayStart
			}
			hours := dep.Sub(arr).Hours()
			if hours < MinStayHours {
				continue
			}
			stays = append(stays, stay{
				v:     models.Violator{TrailerID: id, TrailerNumber: a.number, Carrier: a.carrier, DoorNumber: a.doorNumber},
				hours: hours,
			})
		}
	}

	if st != nil {
		for _, t := range st.DockedTrailers() {
			if _, seen := byTrailer[t.ID]; seen || t.CreatedAt.After(dayEnd) {
				continue
			}
			arr := t.CreatedAt
			if arr.Before(dayStart) {
				arr = dayStart
			}
			hours := dayEnd.Sub(arr).Hours()
			if hours < MinStayHours {
				continue
			}
			stays = append(stays, stay{
				v:     models.Violator{TrailerID: t.ID, TrailerNumber: t.Number, Carrier: t.Carrier, DoorNumber: t.DoorNumber},
				hours: hours,
			})
		}
	}

	stat := &models.DailyStat{
		Date:      dayStart.Format(models.DateLayout),
		Violators: []models.Violator{},
	}
	if len(stays) == 0 {
		return stat
	}

	var sum, max float64
	for _, s := range stays {
		sum += s.hours
		if s.hours > max {
			max = s.hours
		}
		if s.hours >= ViolationThreshold.Hours() {
			stat.Violations++
			if len(stat.Violators) < maxViolators {
				v := s.v
				v.Dwell = round2(s.hours)
				stat.Violators = append(stat.Violators, v)
			}
		}
	}
	stat.Count = len(stays)
	stat.AvgDwell = round2(sum / float64(len(stays)))
	stat.MaxDwell = round2(max)
	return stat
}
