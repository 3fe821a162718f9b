// Package history holds the bounded append-only event log and its query rules.
package history

import "github.com/BearBump/YardBox/internal/models"

// DefaultCapacity: сколько последних записей журнала хранится.
const DefaultCapacity = 1000

// Log is a fixed-capacity ring of entries. Pushing into a full log evicts the oldest entry.
type Log struct {
	buf  []*models.HistoryEntry
	head int
	size int
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]*models.HistoryEntry, capacity)}
}

// FromNewestFirst rebuilds a log from a persisted newest-first slice.
func FromNewestFirst(capacity int, entries []*models.HistoryEntry) *Log {
	l := NewLog(capacity)
	for i := len(entries) - 1; i >= 0; i-- {
		l.Push(entries[i])
	}
	return l
}

func (l *Log) Push(entries ...*models.HistoryEntry) {
	for _, e := range entries {
		l.buf[l.head] = e
		l.head = (l.head + 1) % len(l.buf)
		if l.size < len(l.buf) {
			l.size++
		}
	}
}

func (l *Log) Len() int { return l.size }

func (l *Log) Cap() int { return len(l.buf) }

// Entries returns the retained entries newest-first.
func (l *Log) Entries() []*models.HistoryEntry {
	out := make([]*models.HistoryEntry, 0, l.size)
	for i := 0; i < l.size; i++ {
		idx := (l.head - 1 - i + len(l.buf)) % len(l.buf)
		out = append(out, l.buf[idx])
	}
	return out
}
