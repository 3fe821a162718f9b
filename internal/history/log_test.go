package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/stretchr/testify/require"
)

func entry(i int) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:        fmt.Sprintf("h%d", i),
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Action:    models.ActionMovedToDoor,
	}
}

func TestLog_CapEvictsOldest(t *testing.T) {
	l := NewLog(DefaultCapacity)
	for i := 0; i < 1001; i++ {
		l.Push(entry(i))
	}
	require.Equal(t, 1000, l.Len())

	got := l.Entries()
	require.Len(t, got, 1000)
	require.Equal(t, "h1000", got[0].ID)
	require.Equal(t, "h1", got[len(got)-1].ID)
	for _, e := range got {
		require.NotEqual(t, "h0", e.ID)
	}
}

func TestLog_NewestFirst(t *testing.T) {
	l := NewLog(5)
	l.Push(entry(1), entry(2), entry(3))
	got := l.Entries()
	require.Equal(t, []string{"h3", "h2", "h1"}, ids(got))
}

func TestFromNewestFirst_RoundTrip(t *testing.T) {
	in := []*models.HistoryEntry{entry(3), entry(2), entry(1)}
	l := FromNewestFirst(2, in)
	require.Equal(t, []string{"h3", "h2"}, ids(l.Entries()))

	l.Push(entry(4))
	require.Equal(t, []string{"h4", "h3"}, ids(l.Entries()))
}

func TestNewLog_DefaultCapacity(t *testing.T) {
	require.Equal(t, DefaultCapacity, NewLog(0).Cap())
}

func ids(es []*models.HistoryEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}
