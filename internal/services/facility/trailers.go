package facility

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

type TrailerInput struct {
	Number          string
	Carrier         string
	Status          models.TrailerStatus
	Contents        string
	LoadNumber      string
	Customer        string
	DriverName      string
	DriverPhone     string
	AppointmentTime string
	IsLive          bool

	// Destination defaults to the general yard.
	Destination models.LocationKind
	DoorRef     string
	YardSlotRef string
}

// TrailerPatch updates descriptive fields; nil means unchanged.
type TrailerPatch struct {
	Number          *string
	Carrier         *string
	Status          *models.TrailerStatus
	Contents        *string
	LoadNumber      *string
	Customer        *string
	DriverName      *string
	DriverPhone     *string
	AppointmentTime *string
	IsLive          *bool
}

func (in TrailerInput) normalized() (TrailerInput, error) {
	in.Number = strings.TrimSpace(in.Number)
	in.Carrier = strings.TrimSpace(in.Carrier)
	if in.Carrier == "" {
		return in, yarderr.InvalidArgument("carrier is required")
	}
	if in.Status == "" {
		in.Status = models.TrailerStatusLoaded
	}
	if !in.Status.Valid() {
		return in, yarderr.InvalidArgument("status must be loaded or empty, got %q", in.Status)
	}
	if in.Destination == "" {
		in.Destination = models.LocationYard
	}
	return in, nil
}

// CreateTrailer registers a trailer and places it at its destination. A door
// or slot destination evicts the current holder like a move does.
func (s *Service) CreateTrailer(ctx context.Context, in TrailerInput) (*Result, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}
	action := models.ActionTrailerCreated
	if in.Destination == models.LocationAppointment {
		action = models.ActionAppointmentAdded
	}

	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		if in.Number != "" && t.activeNumberTaken(in.Number, "") {
			return yarderr.Conflict("trailer %s is already on site", in.Number)
		}

		tr := &models.Trailer{
			ID:              t.newID(),
			Number:          in.Number,
			Carrier:         in.Carrier,
			Status:          in.Status,
			Contents:        in.Contents,
			LoadNumber:      in.LoadNumber,
			Customer:        in.Customer,
			DriverName:      in.DriverName,
			DriverPhone:     in.DriverPhone,
			AppointmentTime: in.AppointmentTime,
			IsLive:          in.IsLive,
			CreatedAt:       t.now,
			DwellResets:     []time.Time{},
		}

		e := trailerEntry(action, tr)
		switch in.Destination {
		case models.LocationDoor:
			d, err := t.dockableDoor(in.DoorRef)
			if err != nil {
				return err
			}
			if d.Occupied() {
				occupant := *d.TrailerID
				if err := t.evictFrom(d.TrailerID, d.Vacate); err != nil {
					return err
				}
				res.Evicted, _ = t.st.Locate(occupant)
			}
			t.placeAtDoor(tr, d)
			e.DoorID, e.DoorNumber = d.ID, d.Number
			res.Door = d
		case models.LocationYardSlot:
			y, err := t.slot(in.YardSlotRef)
			if err != nil {
				return err
			}
			if y.Occupied() {
				occupant := *y.TrailerID
				if err := t.evictFrom(y.TrailerID, y.Vacate); err != nil {
					return err
				}
				res.Evicted, _ = t.st.Locate(occupant)
			}
			t.placeInSlot(tr, y)
			e.YardSlotNumber = models.IntPtr(y.Number)
			res.YardSlot = y
		case models.LocationYard, models.LocationStaging, models.LocationAppointment:
			if err := t.place(tr, models.Location{Kind: in.Destination}); err != nil {
				return err
			}
		default:
			return yarderr.InvalidArgument("a new trailer cannot be placed in %q", in.Destination)
		}

		c := t.useCarrier(in.Carrier)
		tr.CarrierID = c.ID
		tr.Carrier = c.Name
		e.Carrier = c.Name
		e.NewLocation = tr.Where().String()
		t.record(e)

		res.Trailer = tr
		return nil
	})
}

// AddAppointment creates a trailer directly in the appointment queue.
func (s *Service) AddAppointment(ctx context.Context, in TrailerInput) (*Result, error) {
	in.Destination = models.LocationAppointment
	return s.CreateTrailer(ctx, in)
}

func (s *Service) UpdateTrailer(ctx context.Context, trailerID string, p TrailerPatch) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		tr, err := t.activeTrailer(trailerID)
		if err != nil {
			return err
		}

		var changes []models.FieldChange
		setString := func(field string, dst *string, v *string) {
			if v == nil {
				return
			}
			nv := strings.TrimSpace(*v)
			if nv == *dst {
				return
			}
			changes = append(changes, models.FieldChange{Field: field, From: *dst, To: nv})
			*dst = nv
		}

		if p.Number != nil {
			n := strings.TrimSpace(*p.Number)
			if n != "" && t.activeNumberTaken(n, tr.ID) {
				return yarderr.Conflict("trailer %s is already on site", n)
			}
			setString("number", &tr.Number, &n)
		}
		if p.Carrier != nil {
			name := strings.TrimSpace(*p.Carrier)
			if name == "" {
				return yarderr.InvalidArgument("carrier is required")
			}
			if !strings.EqualFold(name, tr.Carrier) {
				c := t.useCarrier(name)
				changes = append(changes, models.FieldChange{Field: "carrier", From: tr.Carrier, To: c.Name})
				tr.Carrier, tr.CarrierID = c.Name, c.ID
			}
		}
		if p.Status != nil && *p.Status != tr.Status {
			if !p.Status.Valid() {
				return yarderr.InvalidArgument("status must be loaded or empty, got %q", *p.Status)
			}
			changes = append(changes, models.FieldChange{Field: "status", From: string(tr.Status), To: string(*p.Status)})
			tr.Status = *p.Status
			if d, ok := t.st.DoorByID(tr.DoorID); ok && tr.Location == models.LocationDoor {
				d.Status = string(tr.Status)
			}
		}
		setString("contents", &tr.Contents, p.Contents)
		setString("loadNumber", &tr.LoadNumber, p.LoadNumber)
		setString("customer", &tr.Customer, p.Customer)
		setString("driverName", &tr.DriverName, p.DriverName)
		setString("driverPhone", &tr.DriverPhone, p.DriverPhone)
		setString("appointmentTime", &tr.AppointmentTime, p.AppointmentTime)
		if p.IsLive != nil && *p.IsLive != tr.IsLive {
			changes = append(changes, models.FieldChange{Field: "isLive", From: strconv.FormatBool(tr.IsLive), To: strconv.FormatBool(*p.IsLive)})
			tr.IsLive = *p.IsLive
		}

		res.Trailer = tr
		if len(changes) == 0 {
			return nil
		}
		e := trailerEntry(models.ActionTrailerUpdated, tr)
		loc := tr.Where()
		e.DoorID, e.DoorNumber = loc.DoorID, loc.DoorNumber
		e.NewLocation = loc.String()
		e.Changes = changes
		t.record(e)
		return nil
	})
}

// ReorderAppointments replaces the appointment queue order. ids must be a
// permutation of the current queue.
func (s *Service) ReorderAppointments(ctx context.Context, ids []string) (*Result, error) {
	res := &Result{}
	return s.run(ctx, res, func(t *tx) error {
		reordered, err := permute(t.st.AppointmentQueue, ids, func(tr *models.Trailer) string { return tr.ID })
		if err != nil {
			return err
		}
		from := make([]string, 0, len(t.st.AppointmentQueue))
		for _, tr := range t.st.AppointmentQueue {
			from = append(from, tr.DisplayName())
		}
		to := make([]string, 0, len(reordered))
		for _, tr := range reordered {
			to = append(to, tr.DisplayName())
		}
		t.st.AppointmentQueue = reordered

		t.record(&models.HistoryEntry{
			Action:  models.ActionAppointmentsReordered,
			Changes: []models.FieldChange{{Field: "order", From: strings.Join(from, ", "), To: strings.Join(to, ", ")}},
		})
		return nil
	})
}

// permute reorders items to follow ids exactly.
func permute[T any](items []T, ids []string, idOf func(T) string) ([]T, error) {
	if len(ids) != len(items) {
		return nil, yarderr.InvalidArgument("expected %d ids, got %d", len(items), len(ids))
	}
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[idOf(it)] = it
	}
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, yarderr.InvalidArgument("unknown id %s", id)
		}
		if _, dup := seen[id]; dup {
			return nil, yarderr.InvalidArgument("duplicate id %s", id)
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}
