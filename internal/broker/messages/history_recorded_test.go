package messages

import (
	"testing"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecorded_EncodeDecode(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	e := &models.HistoryEntry{ID: "h1", Timestamp: ts, Action: models.ActionMovedToDoor, TrailerID: "t1", DoorNumber: models.IntPtr(3)}

	b, err := NewHistoryRecorded(e, ts.Add(time.Second)).Encode()
	require.NoError(t, err)

	got, err := DecodeHistoryRecorded(b)
	require.NoError(t, err)
	require.Equal(t, "h1", got.EntryID)
	require.Equal(t, []byte("t1"), got.Key())
	require.Equal(t, 3, *got.Entry.DoorNumber)
	require.True(t, got.AffectsDwell())
}

func TestDecodeHistoryRecorded_Invalid(t *testing.T) {
	_, err := DecodeHistoryRecorded([]byte(`{`))
	require.Error(t, err)

	_, err = DecodeHistoryRecorded([]byte(`{"entry_id":""}`))
	require.Error(t, err)
}

func TestHistoryRecorded_AffectsDwell(t *testing.T) {
	cases := []struct {
		name string
		e    *models.HistoryEntry
		want bool
	}{
		{"yard", &models.HistoryEntry{Action: models.ActionMovedToYard}, true},
		{"deleted", &models.HistoryEntry{Action: models.ActionTrailerDeleted}, true},
		{"staging", &models.HistoryEntry{Action: models.ActionMovedToStaging}, false},
		{"ship with assignment", &models.HistoryEntry{
			Action:            models.ActionTrailerShipped,
			AssignedFromQueue: &models.QueueAssignment{TrailerID: "t2"},
		}, true},
		{"carrier", &models.HistoryEntry{Action: models.ActionCarrierCreated}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewHistoryRecorded(tc.e, time.Now())
			require.Equal(t, tc.want, m.AffectsDwell())
		})
	}
}
