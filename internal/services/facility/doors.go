package facility

import (
	"context"
	"strconv"
	"strings"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

type DoorInput struct {
	Number    *int
	LabelText *string
	Type      models.DoorType
	InService *bool
}

type DoorPatch struct {
	Number      *int
	ClearNumber bool
	LabelText   *string
	Type        *models.DoorType
	InService   *bool
}

func validDoorType(t models.DoorType) bool {
	return t == models.DoorTypeNormal || t == models.DoorTypeBlank
}

// queuedFor reports whether any trailer waits for the door.
func (t *tx) queuedFor(doorID string) bool {
	for _, q := range t.st.QueuedTrailers {
		if q.TargetDoorID == doorID {
			return true
		}
	}
	return false
}

func doorEntry(action models.Action, d *models.Door) *models.HistoryEntry {
	return &models.HistoryEntry{Action: action, DoorID: d.ID, DoorNumber: d.Number, NewLocation: d.DisplayName()}
}

func (s *Service) CreateDoor(ctx context.Context, in DoorInput) (*Result, error) {
	if in.Type == "" {
		in.Type = models.DoorTypeNormal
	}
	if !validDoorType(in.Type) {
		return nil, yarderr.InvalidArgument("door type must be normal or blank, got %q", in.Type)
	}
	if in.Number != nil && *in.Number <= 0 {
		return nil, yarderr.InvalidArgument("door number must be positive")
	}

	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		order := 0
		for _, d := range t.st.Doors {
			if d.Order >= order {
				order = d.Order + 1
			}
		}
		d := &models.Door{
			ID:        t.newID(),
			Number:    in.Number,
			Order:     order,
			Status:    models.DoorStatusEmpty,
			InService: in.InService == nil || *in.InService,
			Type:      in.Type,
			LabelText: in.LabelText,
		}
		t.st.Doors = append(t.st.Doors, d)
		t.record(doorEntry(models.ActionDoorCreated, d))

		res.Door = d
		return nil
	})
}

// UpdateDoor edits a door. A door cannot become blank or out of service while
// a trailer is docked there or queued for it.
func (s *Service) UpdateDoor(ctx context.Context, ref string, p DoorPatch) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		d, err := t.door(ref)
		if err != nil {
			return err
		}
		var changes []models.FieldChange

		switch {
		case p.ClearNumber && d.Number != nil:
			changes = append(changes, models.FieldChange{Field: "number", From: strconv.Itoa(*d.Number), To: ""})
			d.Number = nil
		case p.Number != nil && (d.Number == nil || *d.Number != *p.Number):
			if *p.Number <= 0 {
				return yarderr.InvalidArgument("door number must be positive")
			}
			from := ""
			if d.Number != nil {
				from = strconv.Itoa(*d.Number)
			}
			changes = append(changes, models.FieldChange{Field: "number", From: from, To: strconv.Itoa(*p.Number)})
			d.Number = models.IntPtr(*p.Number)
		}
		if p.LabelText != nil {
			from := ""
			if d.LabelText != nil {
				from = *d.LabelText
			}
			if to := strings.TrimSpace(*p.LabelText); to != from {
				changes = append(changes, models.FieldChange{Field: "labelText", From: from, To: to})
				d.LabelText = &to
			}
		}
		if p.Type != nil && *p.Type != d.Type {
			if !validDoorType(*p.Type) {
				return yarderr.InvalidArgument("door type must be normal or blank, got %q", *p.Type)
			}
			changes = append(changes, models.FieldChange{Field: "type", From: string(d.Type), To: string(*p.Type)})
			d.Type = *p.Type
		}
		if p.InService != nil && *p.InService != d.InService {
			changes = append(changes, models.FieldChange{Field: "inService", From: strconv.FormatBool(d.InService), To: strconv.FormatBool(*p.InService)})
			d.InService = *p.InService
		}

		if !d.Dockable() {
			if d.Occupied() {
				return yarderr.Conflict("%s holds a trailer, move it first", d.DisplayName())
			}
			if t.queuedFor(d.ID) {
				return yarderr.Conflict("trailers are queued for %s", d.DisplayName())
			}
		}
		// номер двери продублирован в трейлерах
		for _, tr := range t.st.Trailers {
			if tr.DoorID == d.ID {
				tr.DoorNumber = d.Number
			}
		}
		for _, q := range t.st.QueuedTrailers {
			if q.TargetDoorID == d.ID {
				q.TargetDoorNumber = d.Number
			}
		}

		res.Door = d
		if len(changes) == 0 {
			return nil
		}
		e := doorEntry(models.ActionDoorUpdated, d)
		e.Changes = changes
		t.record(e)
		return nil
	})
}

func (s *Service) DeleteDoor(ctx context.Context, ref string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		d, err := t.door(ref)
		if err != nil {
			return err
		}
		if d.Occupied() {
			return yarderr.Conflict("%s holds a trailer", d.DisplayName())
		}
		if t.queuedFor(d.ID) {
			return yarderr.Conflict("trailers are queued for %s", d.DisplayName())
		}
		for i, x := range t.st.Doors {
			if x.ID == d.ID {
				t.st.Doors = append(t.st.Doors[:i:i], t.st.Doors[i+1:]...)
				break
			}
		}
		t.record(doorEntry(models.ActionDoorDeleted, d))

		res.Door = d
		return nil
	})
}

// ReorderDoors sets the display order; ids must list every door exactly once.
func (s *Service) ReorderDoors(ctx context.Context, ids []string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		reordered, err := permute(t.st.Doors, ids, func(d *models.Door) string { return d.ID })
		if err != nil {
			return err
		}
		for i, d := range reordered {
			d.Order = i
		}
		t.st.Doors = reordered
		t.record(&models.HistoryEntry{Action: models.ActionDoorsReordered})
		return nil
	})
}

func (s *Service) CreateYardSlot(ctx context.Context, number int) (*Result, error) {
	if number <= 0 {
		return nil, yarderr.InvalidArgument("yard slot number must be positive")
	}
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		for _, y := range t.st.YardSlots {
			if y.Number == number {
				return yarderr.Conflict("yard slot %d already exists", number)
			}
		}
		y := &models.YardSlot{ID: t.newID(), Number: number}
		t.st.YardSlots = append(t.st.YardSlots, y)
		t.record(&models.HistoryEntry{Action: models.ActionYardSlotCreated, YardSlotNumber: models.IntPtr(number)})

		res.YardSlot = y
		return nil
	})
}

func (s *Service) DeleteYardSlot(ctx context.Context, ref string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		y, err := t.slot(ref)
		if err != nil {
			return err
		}
		if y.Occupied() {
			return yarderr.Conflict("yard slot %d holds a trailer", y.Number)
		}
		for i, x := range t.st.YardSlots {
			if x.ID == y.ID {
				t.st.YardSlots = append(t.st.YardSlots[:i:i], t.st.YardSlots[i+1:]...)
				break
			}
		}
		t.record(&models.HistoryEntry{Action: models.ActionYardSlotDeleted, YardSlotNumber: models.IntPtr(y.Number)})

		res.YardSlot = y
		return nil
	})
}
