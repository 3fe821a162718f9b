package dwell

import (
	"sort"

	"github.com/BearBump/YardBox/internal/models"
)

// sortByTime orders entries oldest first; entries sharing a timestamp keep
// log order, which for a newest-first slice means reversing them first.
func sortByTime(entries []*models.HistoryEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}
