package facility

import (
	"context"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

// Result carries the objects touched by one transition.
type Result struct {
	Trailer   *models.Trailer        `json:"trailer,omitempty"`
	Door      *models.Door           `json:"door,omitempty"`
	YardSlot  *models.YardSlot       `json:"yardSlot,omitempty"`
	FreedDoor *models.Door           `json:"freedDoor,omitempty"`
	Evicted   *models.Trailer        `json:"evicted,omitempty"`
	Assigned  *models.Trailer        `json:"assignedFromQueue,omitempty"`
	History   []*models.HistoryEntry `json:"history"`
}

func (s *Service) run(ctx context.Context, res *Result, fn func(t *tx) error) (*Result, error) {
	entries, err := s.mutate(ctx, fn)
	if err != nil {
		return nil, err
	}
	res.History = entries
	return res, nil
}

// finishMove fills the assignment part of the result after the freed door was cascaded.
func (t *tx) finishMove(res *Result, e *models.HistoryEntry, freed *models.Door) {
	if freed == nil {
		return
	}
	res.FreedDoor = freed
	if a := t.autoAssign(freed); a != nil {
		e.AssignedFromQueue = a
		res.Assigned, _ = t.st.Locate(a.TrailerID)
	}
}

func (s *Service) MoveToDoor(ctx context.Context, trailerID, doorRef string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		d, err := t.dockableDoor(doorRef)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind == models.LocationDoor && prev.DoorID == d.ID {
			return yarderr.InvalidArgument("trailer %s is already at %s", tr.DisplayName(), d.DisplayName())
		}

		if d.Occupied() {
			occupant := *d.TrailerID
			if err := t.evictFrom(d.TrailerID, d.Vacate); err != nil {
				return err
			}
			res.Evicted, _ = t.st.Locate(occupant)
		}
		freed := t.release(tr)
		t.placeAtDoor(tr, d)
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionMovedToDoor, tr)
		e.DoorID, e.DoorNumber = d.ID, d.Number
		e.PreviousLocation = prev.String()
		e.NewLocation = d.DisplayName()
		if prev.Queued() {
			e.Reason = "left " + prev.String()
		}
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer, res.Door = tr, d
		return nil
	})
}

func (s *Service) MoveToYard(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind == models.LocationYard {
			return yarderr.InvalidArgument("trailer %s is already in the yard", tr.DisplayName())
		}

		freed := t.release(tr)
		if err := t.place(tr, models.InYard()); err != nil {
			return err
		}
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionMovedToYard, tr)
		e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
		e.YardSlotNumber = prev.YardSlotNumber
		e.PreviousLocation = prev.String()
		e.NewLocation = models.InYard().String()
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

func (s *Service) MoveToYardSlot(ctx context.Context, trailerID, slotRef string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		y, err := t.slot(slotRef)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind == models.LocationYardSlot && prev.YardSlotID == y.ID {
			return yarderr.InvalidArgument("trailer %s is already in yard slot %d", tr.DisplayName(), y.Number)
		}

		if y.Occupied() {
			occupant := *y.TrailerID
			if err := t.evictFrom(y.TrailerID, y.Vacate); err != nil {
				return err
			}
			res.Evicted, _ = t.st.Locate(occupant)
		}
		freed := t.release(tr)
		t.placeInSlot(tr, y)
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionMovedToYardSlot, tr)
		e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
		e.YardSlotNumber = models.IntPtr(y.Number)
		e.PreviousLocation = prev.String()
		e.NewLocation = models.InYardSlot(y).String()
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer, res.YardSlot = tr, y
		return nil
	})
}

func (s *Service) MoveToStaging(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind == models.LocationStaging {
			return yarderr.InvalidArgument("trailer %s is already in staging", tr.DisplayName())
		}
		if t.st.Staging != nil {
			return yarderr.Conflict("staging is occupied by %s", t.st.Staging.DisplayName())
		}

		freed := t.release(tr)
		if err := t.place(tr, models.InStaging()); err != nil {
			return err
		}
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionMovedToStaging, tr)
		e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
		e.PreviousLocation = prev.String()
		e.NewLocation = models.InStaging().String()
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

// CheckIn moves an arrived appointment into staging.
func (s *Service) CheckIn(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind != models.LocationAppointment {
			return yarderr.InvalidArgument("trailer %s is not in the appointment queue", tr.DisplayName())
		}
		if t.st.Staging != nil {
			return yarderr.Conflict("staging is occupied by %s", t.st.Staging.DisplayName())
		}

		t.release(tr)
		if err := t.place(tr, models.InStaging()); err != nil {
			return err
		}
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionCheckedIn, tr)
		e.PreviousLocation = prev.String()
		e.NewLocation = models.InStaging().String()
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

// Enqueue puts a staged or appointment trailer in line for a door.
func (s *Service) Enqueue(ctx context.Context, trailerID, doorRef string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind != models.LocationStaging && prev.Kind != models.LocationAppointment {
			return yarderr.InvalidArgument("only staged or appointment trailers can be queued, %s is in %s", tr.DisplayName(), prev.String())
		}
		d, err := t.dockableDoor(doorRef)
		if err != nil {
			return err
		}

		t.release(tr)
		loc := models.InQueue(d, t.now)
		if err := t.place(tr, loc); err != nil {
			return err
		}
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionQueued, tr)
		e.DoorID, e.DoorNumber = d.ID, d.Number
		e.PreviousLocation = prev.String()
		e.NewLocation = loc.String()
		t.record(e)

		res.Trailer, res.Door = tr, d
		return nil
	})
}

// ReassignQueue retargets a queued trailer. Its queuedAt restarts, so it goes
// to the back of the new door's line.
func (s *Service) ReassignQueue(ctx context.Context, trailerID, doorRef string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if prev.Kind != models.LocationQueue {
			return yarderr.InvalidArgument("trailer %s is not queued for a door", tr.DisplayName())
		}
		d, err := t.dockableDoor(doorRef)
		if err != nil {
			return err
		}

		t.release(tr)
		loc := models.InQueue(d, t.now)
		if err := t.place(tr, loc); err != nil {
			return err
		}

		e := trailerEntry(models.ActionQueueReassigned, tr)
		e.DoorID, e.DoorNumber = d.ID, d.Number
		e.PreviousLocation = prev.String()
		e.NewLocation = loc.String()
		e.Changes = []models.FieldChange{{Field: "targetDoor", From: prev.String(), To: loc.String()}}
		t.record(e)

		res.Trailer, res.Door = tr, d
		return nil
	})
}

// CancelQueue sends a queued or appointment trailer to the general yard.
func (s *Service) CancelQueue(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()
		if !prev.Queued() {
			return yarderr.InvalidArgument("trailer %s is not queued", tr.DisplayName())
		}

		t.release(tr)
		if err := t.place(tr, models.InYard()); err != nil {
			return err
		}
		tr.ResetDwell(t.now, true)

		e := trailerEntry(models.ActionQueueCancelled, tr)
		e.DoorID, e.DoorNumber = prev.TargetDoorID, prev.TargetDoorNumber
		e.PreviousLocation = prev.String()
		e.NewLocation = models.InYard().String()
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

func (s *Service) Ship(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()

		freed := t.release(tr)
		if err := t.place(tr, models.Shipped(t.now, prev.String())); err != nil {
			return err
		}

		e := trailerEntry(models.ActionTrailerShipped, tr)
		e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
		e.YardSlotNumber = prev.YardSlotNumber
		e.PreviousLocation = prev.String()
		e.NewLocation = tr.Where().String()
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

// DeleteTrailer removes a trailer from any container, shipped ones included.
func (s *Service) DeleteTrailer(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.trailer(trailerID)
		if err != nil {
			return err
		}
		prev := tr.Where()

		freed := t.release(tr)

		e := trailerEntry(models.ActionTrailerDeleted, tr)
		e.DoorID, e.DoorNumber = prev.DoorID, prev.DoorNumber
		e.YardSlotNumber = prev.YardSlotNumber
		e.PreviousLocation = prev.String()
		t.finishMove(res, e, freed)
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

// ResetDwell restarts the dwell clock without moving the trailer.
func (s *Service) ResetDwell(ctx context.Context, trailerID string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}
		tr.ResetDwell(t.now, false)

		e := trailerEntry(models.ActionDwellReset, tr)
		loc := tr.Where()
		e.DoorID, e.DoorNumber = loc.DoorID, loc.DoorNumber
		e.NewLocation = loc.String()
		t.record(e)

		res.Trailer = tr
		return nil
	})
}
