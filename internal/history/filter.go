package history

import (
	"strconv"
	"strings"

	"github.com/BearBump/YardBox/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Match reports whether the entry passes every set field of the filter.
func Match(e *models.HistoryEntry, f models.HistoryFilter) bool {
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	if f.TrailerID != "" && !touchesTrailer(e, f.TrailerID) {
		return false
	}
	if len(f.Actions) > 0 {
		ok := false
		for _, a := range f.Actions {
			if e.Action == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(SearchText(e), q)
	}
	return true
}

// Apply filters newest-first entries and pages the result.
func Apply(entries []*models.HistoryEntry, f models.HistoryFilter) []*models.HistoryEntry {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	out := make([]*models.HistoryEntry, 0)
	skipped := 0
	for _, e := range entries {
		if !Match(e, f) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Timeline returns the entries touching one trailer, oldest first.
func Timeline(entries []*models.HistoryEntry, trailerID string) []*models.HistoryEntry {
	var out []*models.HistoryEntry
	for i := len(entries) - 1; i >= 0; i-- {
		if touchesTrailer(entries[i], trailerID) {
			out = append(out, entries[i])
		}
	}
	return out
}

func touchesTrailer(e *models.HistoryEntry, id string) bool {
	if e.TrailerID == id {
		return true
	}
	return e.AssignedFromQueue != nil && e.AssignedFromQueue.TrailerID == id
}

// SearchText is the lowercase haystack used by full-text search.
func SearchText(e *models.HistoryEntry) string {
	var b strings.Builder
	add := func(s string) {
		if s != "" {
			b.WriteString(strings.ToLower(s))
			b.WriteByte(' ')
		}
	}
	add(string(e.Action))
	add(e.TrailerID)
	add(e.TrailerNumber)
	add(e.Carrier)
	if e.DoorNumber != nil {
		add(strconv.Itoa(*e.DoorNumber))
		add("door " + strconv.Itoa(*e.DoorNumber))
	}
	if e.YardSlotNumber != nil {
		add(strconv.Itoa(*e.YardSlotNumber))
	}
	add(e.PreviousLocation)
	add(e.NewLocation)
	add(e.Reason)
	for _, c := range e.Changes {
		add(c.Field)
		add(c.From)
		add(c.To)
	}
	if a := e.AssignedFromQueue; a != nil {
		add(string(a.Action))
		add(a.TrailerID)
		add(a.TrailerNumber)
		add(a.Carrier)
	}
	return b.String()
}
