package messages

import (
	"encoding/json"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/pkg/errors"
)

// HistoryRecorded is published for every entry appended to the yard history log.
type HistoryRecorded struct {
	EntryID     string               `json:"entry_id"`
	Action      models.Action        `json:"action"`
	TrailerID   string               `json:"trailer_id,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
	PublishedAt time.Time            `json:"published_at"`
	Entry       *models.HistoryEntry `json:"entry"`
}

func NewHistoryRecorded(e *models.HistoryEntry, publishedAt time.Time) HistoryRecorded {
	return HistoryRecorded{
		EntryID:     e.ID,
		Action:      e.Action,
		TrailerID:   e.TrailerID,
		Timestamp:   e.Timestamp,
		PublishedAt: publishedAt,
		Entry:       e,
	}
}

// Key партиционирует события по трейлеру, чтобы сохранить их порядок.
func (m HistoryRecorded) Key() []byte {
	if m.TrailerID != "" {
		return []byte(m.TrailerID)
	}
	return []byte(m.EntryID)
}

func (m HistoryRecorded) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode history recorded")
	}
	return b, nil
}

func DecodeHistoryRecorded(b []byte) (HistoryRecorded, error) {
	var m HistoryRecorded
	if err := json.Unmarshal(b, &m); err != nil {
		return HistoryRecorded{}, errors.Wrap(err, "decode history recorded")
	}
	if m.EntryID == "" || m.Action == "" {
		return HistoryRecorded{}, errors.New("history recorded: entry_id and action are required")
	}
	return m, nil
}

// AffectsDwell reports whether the action can change door occupancy and so the dwell aggregates.
func (m HistoryRecorded) AffectsDwell() bool {
	switch m.Action {
	case models.ActionMovedToDoor, models.ActionMovedToYard, models.ActionTrailerDeleted:
		return true
	}
	return m.Entry != nil && m.Entry.AssignedFromQueue != nil
}
