package dwell

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires shortly after local midnight, so the day that just
// ended gets its final totals.
const DefaultSchedule = "5 0 * * *"

// Scheduler runs the daily calculation on a cron schedule and on demand.
type Scheduler struct {
	calc     *Calculator
	schedule string

	triggerCh chan struct{}
	// выставляется кроном: следующий прогон сначала закрывает вчерашний день
	closePending atomic.Bool

	startedAtUnixNano   int64
	lastRunUnixNano     atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalRuns           atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
	lastDate            atomic.Value
	lastClosedDate      atomic.Value
}

func NewScheduler(calc *Calculator, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		calc:              calc,
		schedule:          schedule,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

// Trigger requests a recalculation (non-blocking; bursts collapse into one run).
func (s *Scheduler) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	Schedule      string     `json:"schedule"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	LastDate      string     `json:"lastDate,omitempty"`
	LastClosedDay string     `json:"lastClosedDay,omitempty"`
	TotalRuns     int64      `json:"totalRuns"`
	TotalErrors   int64      `json:"totalErrors"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, s.startedAtUnixNano).UTC(),
		Schedule:    s.schedule,
		TotalRuns:   s.totalRuns.Load(),
		TotalErrors: s.totalErrors.Load(),
	}
	if n := s.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	if d, ok := s.lastDate.Load().(string); ok {
		st.LastDate = d
	}
	if d, ok := s.lastClosedDate.Load().(string); ok {
		st.LastClosedDay = d
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

// closeDay asks the next run to recompute the previous day before today.
func (s *Scheduler) closeDay() {
	s.closePending.Store(true)
	s.Trigger()
}

// Run recomputes yesterday and today once at start and on every cron tick.
// Triggers in between recompute today only. Returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.calc.Location()))
	if _, err := c.AddFunc(s.schedule, s.closeDay); err != nil {
		return errors.Wrapf(err, "parse dwell schedule %q", s.schedule)
	}
	c.Start()
	defer c.Stop()

	s.closePending.Store(true)
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.triggerCh:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.calc.Now()
	s.lastRunUnixNano.Store(now.UnixNano())
	s.totalRuns.Add(1)

	if s.closePending.Swap(false) {
		if stat, ok := s.calculate(ctx, now.AddDate(0, 0, -1)); ok {
			s.lastClosedDate.Store(stat.Date)
		}
	}
	if stat, ok := s.calculate(ctx, now); ok {
		s.lastDate.Store(stat.Date)
	}
}

func (s *Scheduler) calculate(ctx context.Context, date time.Time) (*models.DailyStat, bool) {
	stat, err := s.calc.Calculate(ctx, date)
	if err != nil {
		s.totalErrors.Add(1)
		s.lastErrorMu.Lock()
		s.lastError = err.Error()
		s.lastErrorMu.Unlock()
		slog.Error("dwell calculation", "date", date.Format(models.DateLayout), "error", err.Error())
		return nil, false
	}
	slog.Info("dwell calculated", "date", stat.Date, "count", stat.Count, "avg", stat.AvgDwell, "violations", stat.Violations)
	return stat, true
}
