package facility

import (
	"strings"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

// tx is one transition in progress: the working state plus the entries it produced.
type tx struct {
	st      *models.FacilityState
	now     time.Time
	newID   func() string
	entries []*models.HistoryEntry
}

func (t *tx) record(e *models.HistoryEntry) *models.HistoryEntry {
	e.ID = t.newID()
	e.Timestamp = t.now
	t.entries = append(t.entries, e)
	return e
}

// trailerEntry pre-fills an entry with the trailer's identity.
func trailerEntry(action models.Action, tr *models.Trailer) *models.HistoryEntry {
	return &models.HistoryEntry{
		Action:        action,
		TrailerID:     tr.ID,
		TrailerNumber: tr.Number,
		Carrier:       tr.Carrier,
	}
}

func (t *tx) trailer(id string) (*models.Trailer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, yarderr.InvalidArgument("trailer id is required")
	}
	tr, ok := t.st.Locate(id)
	if !ok {
		return nil, yarderr.NotFound("trailer %s not found", id)
	}
	return tr, nil
}

func (t *tx) activeTrailer(id string) (*models.Trailer, error) {
	tr, err := t.trailer(id)
	if err != nil {
		return nil, err
	}
	if !tr.Where().Active() {
		return nil, yarderr.InvalidArgument("trailer %s is shipped", tr.DisplayName())
	}
	return tr, nil
}

func (t *tx) door(ref string) (*models.Door, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, yarderr.InvalidArgument("door is required")
	}
	d, ok := t.st.DoorByRef(ref)
	if !ok {
		return nil, yarderr.NotFound("door %s not found", ref)
	}
	return d, nil
}

func (t *tx) dockableDoor(ref string) (*models.Door, error) {
	d, err := t.door(ref)
	if err != nil {
		return nil, err
	}
	if d.Type == models.DoorTypeBlank {
		return nil, yarderr.InvalidArgument("%s is a blank door", d.DisplayName())
	}
	if !d.InService {
		return nil, yarderr.InvalidArgument("%s is out of service", d.DisplayName())
	}
	return d, nil
}

func (t *tx) slot(ref string) (*models.YardSlot, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, yarderr.InvalidArgument("yard slot is required")
	}
	y, ok := t.st.SlotByRef(ref)
	if !ok {
		return nil, yarderr.NotFound("yard slot %s not found", ref)
	}
	return y, nil
}

// release takes the trailer out of its container and clears the door or slot
// mirror it held. It returns the door that became empty, if any.
func (t *tx) release(tr *models.Trailer) *models.Door {
	var freed *models.Door
	switch tr.Location {
	case models.LocationDoor:
		if d, ok := t.st.DoorByID(tr.DoorID); ok && d.TrailerID != nil && *d.TrailerID == tr.ID {
			d.Vacate()
			freed = d
		}
	case models.LocationYardSlot:
		if y, ok := t.st.SlotByID(tr.YardSlotID); ok && y.TrailerID != nil && *y.TrailerID == tr.ID {
			y.Vacate()
		}
	}
	t.st.Detach(tr.ID)
	return freed
}

func (t *tx) placeAtDoor(tr *models.Trailer, d *models.Door) {
	tr.Place(models.AtDoor(d))
	d.Occupy(tr)
	t.st.Trailers = append(t.st.Trailers, tr)
}

func (t *tx) placeInSlot(tr *models.Trailer, y *models.YardSlot) {
	tr.Place(models.InYardSlot(y))
	y.Occupy(tr)
	t.st.Trailers = append(t.st.Trailers, tr)
}

// place puts the trailer into a container without a door or slot mirror.
func (t *tx) place(tr *models.Trailer, loc models.Location) error {
	if loc.Kind == models.LocationStaging && t.st.Staging != nil && t.st.Staging.ID != tr.ID {
		return yarderr.Conflict("staging is occupied by %s", t.st.Staging.DisplayName())
	}
	tr.Place(loc)
	if err := t.st.Attach(tr); err != nil {
		return yarderr.Internal(err, "attach trailer")
	}
	return nil
}

// evictFrom moves the current holder of a door or slot to the general yard and
// records it. A mirror pointing at a trailer that does not exist is just cleared.
func (t *tx) evictFrom(occupantID *string, clear func()) error {
	if occupantID == nil {
		return nil
	}
	occ, ok := t.st.Locate(*occupantID)
	if !ok {
		clear()
		return nil
	}
	prev := occ.Where()
	t.release(occ)
	clear()
	if err := t.place(occ, models.InYard()); err != nil {
		return err
	}
	occ.ResetDwell(t.now, true)

	e := trailerEntry(models.ActionMovedToYard, occ)
	e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
	e.YardSlotNumber = prev.YardSlotNumber
	e.PreviousLocation = prev.String()
	e.NewLocation = models.InYard().String()
	e.Reason = models.ReasonReplaced
	t.record(e)
	return nil
}

// autoAssign docks the oldest trailer queued for a door that has just become empty.
func (t *tx) autoAssign(d *models.Door) *models.QueueAssignment {
	if d == nil || d.Occupied() || !d.Dockable() {
		return nil
	}
	next := NextInQueue(t.st.QueuedTrailers, d.ID)
	if next == nil {
		return nil
	}
	t.st.Detach(next.ID)
	t.placeAtDoor(next, d)
	next.ResetDwell(t.now, true)

	return &models.QueueAssignment{
		Action:        models.ActionAssignedFromQueue,
		TrailerID:     next.ID,
		TrailerNumber: next.Number,
		Carrier:       next.Carrier,
		DoorID:        d.ID,
		DoorNumber:    d.Number,
	}
}

// NextInQueue returns the trailer queued for doorID with the oldest queuedAt.
// Equal timestamps keep queue order.
func NextInQueue(queue []*models.Trailer, doorID string) *models.Trailer {
	var best *models.Trailer
	for _, q := range queue {
		if q.TargetDoorID != doorID || q.QueuedAt == nil {
			continue
		}
		if best == nil || q.QueuedAt.Before(*best.QueuedAt) {
			best = q
		}
	}
	return best
}

func (t *tx) activeNumberTaken(number, exceptID string) bool {
	for _, tr := range t.st.ActiveTrailers() {
		if tr.ID != exceptID && strings.EqualFold(tr.Number, number) {
			return true
		}
	}
	return false
}

// useCarrier resolves the carrier by name, creating it when unknown, and counts the use.
func (t *tx) useCarrier(name string) *models.Carrier {
	c, ok := t.st.CarrierByName(name)
	if !ok {
		c = &models.Carrier{ID: t.newID(), Name: strings.TrimSpace(name), CreatedAt: t.now}
		t.st.Carriers = append(t.st.Carriers, c)
	}
	c.UsageCount++
	return c
}
