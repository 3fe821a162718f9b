package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FacilityState is the whole current snapshot. Stores read and write it as one document.
type FacilityState struct {
	Doors            []*Door     `json:"doors"`
	YardSlots        []*YardSlot `json:"yardSlots"`
	Trailers         []*Trailer  `json:"trailers"`
	YardTrailers     []*Trailer  `json:"yardTrailers"`
	Staging          *Trailer    `json:"staging"`
	QueuedTrailers   []*Trailer  `json:"queuedTrailers"`
	AppointmentQueue []*Trailer  `json:"appointmentQueue"`
	ShippedTrailers  []*Trailer  `json:"shippedTrailers"`
	Carriers         []*Carrier  `json:"carriers"`
}

func NewFacilityState() *FacilityState {
	return &FacilityState{
		Doors:            []*Door{},
		YardSlots:        []*YardSlot{},
		Trailers:         []*Trailer{},
		YardTrailers:     []*Trailer{},
		QueuedTrailers:   []*Trailer{},
		AppointmentQueue: []*Trailer{},
		ShippedTrailers:  []*Trailer{},
		Carriers:         []*Carrier{},
	}
}

// Normalize replaces nil containers so the document always serializes with arrays.
func (s *FacilityState) Normalize() {
	if s.Doors == nil {
		s.Doors = []*Door{}
	}
	if s.YardSlots == nil {
		s.YardSlots = []*YardSlot{}
	}
	if s.Trailers == nil {
		s.Trailers = []*Trailer{}
	}
	if s.YardTrailers == nil {
		s.YardTrailers = []*Trailer{}
	}
	if s.QueuedTrailers == nil {
		s.QueuedTrailers = []*Trailer{}
	}
	if s.AppointmentQueue == nil {
		s.AppointmentQueue = []*Trailer{}
	}
	if s.ShippedTrailers == nil {
		s.ShippedTrailers = []*Trailer{}
	}
	if s.Carriers == nil {
		s.Carriers = []*Carrier{}
	}
	for _, d := range s.Doors {
		if d.Status == "" {
			d.Status = DoorStatusEmpty
		}
		if d.Type == "" {
			d.Type = DoorTypeNormal
		}
	}
}

// Clone returns a deep copy (the document is plain JSON data).
func (s *FacilityState) Clone() *FacilityState {
	b, err := json.Marshal(s)
	if err != nil {
		panic(errors.Wrap(err, "clone facility state"))
	}
	out := &FacilityState{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(errors.Wrap(err, "clone facility state"))
	}
	out.Normalize()
	return out
}

// Locate finds a trailer in any of the seven containers.
func (s *FacilityState) Locate(id string) (*Trailer, bool) {
	for _, list := range s.containers() {
		for _, t := range list {
			if t.ID == id {
				return t, true
			}
		}
	}
	if s.Staging != nil && s.Staging.ID == id {
		return s.Staging, true
	}
	return nil, false
}

// Detach removes the trailer from whatever container holds it. Door and slot
// mirrors are left alone; callers handle them.
func (s *FacilityState) Detach(id string) bool {
	if s.Staging != nil && s.Staging.ID == id {
		s.Staging = nil
		return true
	}
	for _, list := range []*[]*Trailer{&s.Trailers, &s.YardTrailers, &s.QueuedTrailers, &s.AppointmentQueue, &s.ShippedTrailers} {
		for i, t := range *list {
			if t.ID == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Attach inserts the trailer into the container matching its Location.
func (s *FacilityState) Attach(t *Trailer) error {
	switch t.Location {
	case LocationDoor, LocationYardSlot:
		s.Trailers = append(s.Trailers, t)
	case LocationYard:
		s.YardTrailers = append(s.YardTrailers, t)
	case LocationStaging:
		if s.Staging != nil {
			return errors.New("staging is occupied")
		}
		s.Staging = t
	case LocationQueue:
		s.QueuedTrailers = append(s.QueuedTrailers, t)
	case LocationAppointment:
		s.AppointmentQueue = append(s.AppointmentQueue, t)
	case LocationShipped:
		s.ShippedTrailers = append(s.ShippedTrailers, t)
	default:
		return errors.Errorf("unknown location %q", t.Location)
	}
	return nil
}

// DoorByRef resolves a door by id, then by its numeric number. Numbers are not
// unique; the first door with that number wins.
func (s *FacilityState) DoorByRef(ref string) (*Door, bool) {
	ref = strings.TrimSpace(ref)
	for _, d := range s.Doors {
		if d.ID == ref {
			return d, true
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return nil, false
	}
	for _, d := range s.Doors {
		if d.Number != nil && *d.Number == n {
			return d, true
		}
	}
	return nil, false
}

func (s *FacilityState) DoorByID(id string) (*Door, bool) {
	for _, d := range s.Doors {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// SlotByRef resolves a yard slot by id, then by number.
func (s *FacilityState) SlotByRef(ref string) (*YardSlot, bool) {
	ref = strings.TrimSpace(ref)
	for _, y := range s.YardSlots {
		if y.ID == ref {
			return y, true
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return nil, false
	}
	for _, y := range s.YardSlots {
		if y.Number == n {
			return y, true
		}
	}
	return nil, false
}

func (s *FacilityState) SlotByID(id string) (*YardSlot, bool) {
	for _, y := range s.YardSlots {
		if y.ID == id {
			return y, true
		}
	}
	return nil, false
}

func (s *FacilityState) CarrierByName(name string) (*Carrier, bool) {
	for _, c := range s.Carriers {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return nil, false
}

// ActiveTrailers returns every non-shipped trailer.
func (s *FacilityState) ActiveTrailers() []*Trailer {
	out := make([]*Trailer, 0, len(s.Trailers)+len(s.YardTrailers)+len(s.QueuedTrailers)+len(s.AppointmentQueue)+1)
	out = append(out, s.Trailers...)
	out = append(out, s.YardTrailers...)
	if s.Staging != nil {
		out = append(out, s.Staging)
	}
	out = append(out, s.QueuedTrailers...)
	out = append(out, s.AppointmentQueue...)
	return out
}

// DockedTrailers returns trailers currently at a door.
func (s *FacilityState) DockedTrailers() []*Trailer {
	var out []*Trailer
	for _, t := range s.Trailers {
		if t.Location == LocationDoor && t.DoorID != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *FacilityState) containers() [][]*Trailer {
	return [][]*Trailer{s.Trailers, s.YardTrailers, s.QueuedTrailers, s.AppointmentQueue, s.ShippedTrailers}
}

// Validate checks container exclusivity and door/slot mirror consistency.
func (s *FacilityState) Validate() error {
	seen := map[string]string{}
	check := func(where string, t *Trailer, want ...LocationKind) error {
		if prev, ok := seen[t.ID]; ok {
			return errors.Errorf("trailer %s is in %s and %s", t.ID, prev, where)
		}
		seen[t.ID] = where
		for _, k := range want {
			if t.Location == k {
				return nil
			}
		}
		return errors.Errorf("trailer %s in %s has location %q", t.ID, where, t.Location)
	}

	for _, t := range s.Trailers {
		if err := check("trailers", t, LocationDoor, LocationYardSlot); err != nil {
			return err
		}
		if (t.DoorID == "") == (t.YardSlotID == "") {
			return errors.Errorf("trailer %s must have exactly one of doorId/yardSlotId", t.ID)
		}
	}
	for _, t := range s.YardTrailers {
		if err := check("yardTrailers", t, LocationYard); err != nil {
			return err
		}
	}
	if s.Staging != nil {
		if err := check("staging", s.Staging, LocationStaging); err != nil {
			return err
		}
	}
	for _, t := range s.QueuedTrailers {
		if err := check("queuedTrailers", t, LocationQueue); err != nil {
			return err
		}
		if t.TargetDoorID == "" || t.QueuedAt == nil {
			return errors.Errorf("queued trailer %s has no target door", t.ID)
		}
	}
	for _, t := range s.AppointmentQueue {
		if err := check("appointmentQueue", t, LocationAppointment); err != nil {
			return err
		}
	}
	for _, t := range s.ShippedTrailers {
		if err := check("shippedTrailers", t, LocationShipped); err != nil {
			return err
		}
		if t.DoorID != "" || t.YardSlotID != "" {
			return errors.Errorf("shipped trailer %s still references a door or slot", t.ID)
		}
	}

	byDoor := map[string]string{}
	bySlot := map[string]string{}
	for _, t := range s.Trailers {
		if t.DoorID != "" {
			if other, ok := byDoor[t.DoorID]; ok {
				return errors.Errorf("door %s holds %s and %s", t.DoorID, other, t.ID)
			}
			byDoor[t.DoorID] = t.ID
		}
		if t.YardSlotID != "" {
			if other, ok := bySlot[t.YardSlotID]; ok {
				return errors.Errorf("yard slot %s holds %s and %s", t.YardSlotID, other, t.ID)
			}
			bySlot[t.YardSlotID] = t.ID
		}
	}
	for _, d := range s.Doors {
		want, docked := byDoor[d.ID]
		switch {
		case d.TrailerID == nil && docked:
			return errors.Errorf("door %s is empty but trailer %s is docked there", d.ID, want)
		case d.TrailerID != nil && !docked:
			return errors.Errorf("door %s points at %s which is not docked there", d.ID, *d.TrailerID)
		case d.TrailerID != nil && *d.TrailerID != want:
			return errors.Errorf("door %s points at %s but %s is docked there", d.ID, *d.TrailerID, want)
		}
		if d.TrailerID != nil && !d.Dockable() {
			return errors.Errorf("door %s is blank or out of service but holds %s", d.ID, *d.TrailerID)
		}
	}
	for _, y := range s.YardSlots {
		want, parked := bySlot[y.ID]
		switch {
		case y.TrailerID == nil && parked:
			return errors.Errorf("yard slot %s is empty but trailer %s is parked there", y.ID, want)
		case y.TrailerID != nil && !parked:
			return errors.Errorf("yard slot %s points at %s which is not parked there", y.ID, *y.TrailerID)
		case y.TrailerID != nil && *y.TrailerID != want:
			return errors.Errorf("yard slot %s points at %s but %s is parked there", y.ID, *y.TrailerID, want)
		}
	}
	for _, t := range s.Trailers {
		if _, ok := s.DoorByID(t.DoorID); t.DoorID != "" && !ok {
			return errors.Errorf("trailer %s is docked at unknown door %s", t.ID, t.DoorID)
		}
		if _, ok := s.SlotByID(t.YardSlotID); t.YardSlotID != "" && !ok {
			return errors.Errorf("trailer %s is parked at unknown yard slot %s", t.ID, t.YardSlotID)
		}
	}
	return nil
}
