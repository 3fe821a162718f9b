package models

import (
	"strconv"
	"time"
)

type TrailerStatus string

const (
	TrailerStatusLoaded TrailerStatus = "loaded"
	TrailerStatusEmpty  TrailerStatus = "empty"
)

func (s TrailerStatus) Valid() bool {
	return s == TrailerStatusLoaded || s == TrailerStatusEmpty
}

// MaxDwellResets: сколько последних сбросов хранится у трейлера.
const MaxDwellResets = 10

type Trailer struct {
	ID              string        `json:"id"`
	Number          string        `json:"number"`
	Carrier         string        `json:"carrier"`
	CarrierID       string        `json:"carrierId"`
	Status          TrailerStatus `json:"status"`
	Contents        string        `json:"contents"`
	LoadNumber      string        `json:"loadNumber"`
	Customer        string        `json:"customer"`
	DriverName      string        `json:"driverName"`
	DriverPhone     string        `json:"driverPhone"`
	AppointmentTime string        `json:"appointmentTime"`
	IsLive          bool          `json:"isLive"`

	Location    LocationKind `json:"location"`
	CreatedAt   time.Time    `json:"createdAt"`
	DwellResets []time.Time  `json:"dwellResets"`

	DoorID           string     `json:"doorId,omitempty"`
	DoorNumber       *int       `json:"doorNumber,omitempty"`
	YardSlotID       string     `json:"yardSlotId,omitempty"`
	YardSlotNumber   *int       `json:"yardSlotNumber,omitempty"`
	TargetDoorID     string     `json:"targetDoorId,omitempty"`
	TargetDoorNumber *int       `json:"targetDoorNumber,omitempty"`
	QueuedAt         *time.Time `json:"queuedAt,omitempty"`
	ShippedAt        *time.Time `json:"shippedAt,omitempty"`
	PreviousLocation string     `json:"previousLocation,omitempty"`
}

type LocationKind string

const (
	LocationDoor        LocationKind = "door"
	LocationYardSlot    LocationKind = "yard_slot"
	LocationYard        LocationKind = "yard"
	LocationStaging     LocationKind = "staging"
	LocationQueue       LocationKind = "queue"
	LocationAppointment LocationKind = "appointment"
	LocationShipped     LocationKind = "shipped"
)

// Location is the explicit variant of where a trailer is. Only the fields of
// the active Kind are meaningful; Trailer.Place is the single writer of the
// flattened presence fields.
type Location struct {
	Kind LocationKind

	DoorID     string
	DoorNumber *int

	YardSlotID     string
	YardSlotNumber *int

	TargetDoorID     string
	TargetDoorNumber *int
	QueuedAt         time.Time

	ShippedAt        time.Time
	PreviousLocation string
}

func AtDoor(d *Door) Location {
	return Location{Kind: LocationDoor, DoorID: d.ID, DoorNumber: copyInt(d.Number)}
}

func InYardSlot(s *YardSlot) Location {
	n := s.Number
	return Location{Kind: LocationYardSlot, YardSlotID: s.ID, YardSlotNumber: &n}
}

func InYard() Location { return Location{Kind: LocationYard} }

func InStaging() Location { return Location{Kind: LocationStaging} }

func InQueue(target *Door, at time.Time) Location {
	return Location{Kind: LocationQueue, TargetDoorID: target.ID, TargetDoorNumber: copyInt(target.Number), QueuedAt: at}
}

func InAppointmentQueue() Location { return Location{Kind: LocationAppointment} }

func Shipped(at time.Time, previous string) Location {
	return Location{Kind: LocationShipped, ShippedAt: at, PreviousLocation: previous}
}

// Active is true for every location except shipped.
func (l Location) Active() bool {
	return l.Kind != LocationShipped && l.Kind != ""
}

func (l Location) Queued() bool {
	return l.Kind == LocationQueue || l.Kind == LocationAppointment
}

// String returns the human readable form stored in history and previousLocation.
func (l Location) String() string {
	switch l.Kind {
	case LocationDoor:
		return "Door " + numberOrDash(l.DoorNumber)
	case LocationYardSlot:
		return "Yard Slot " + numberOrDash(l.YardSlotNumber)
	case LocationYard:
		return "Yard"
	case LocationStaging:
		return "Staging"
	case LocationQueue:
		return "Queue for Door " + numberOrDash(l.TargetDoorNumber)
	case LocationAppointment:
		return "Appointment Queue"
	case LocationShipped:
		return "Shipped"
	default:
		return "Unknown"
	}
}

// Where derives the location variant from the persisted fields.
func (t *Trailer) Where() Location {
	loc := Location{Kind: t.Location}
	switch t.Location {
	case LocationDoor:
		loc.DoorID, loc.DoorNumber = t.DoorID, copyInt(t.DoorNumber)
	case LocationYardSlot:
		loc.YardSlotID, loc.YardSlotNumber = t.YardSlotID, copyInt(t.YardSlotNumber)
	case LocationQueue:
		loc.TargetDoorID, loc.TargetDoorNumber = t.TargetDoorID, copyInt(t.TargetDoorNumber)
		if t.QueuedAt != nil {
			loc.QueuedAt = *t.QueuedAt
		}
	case LocationShipped:
		if t.ShippedAt != nil {
			loc.ShippedAt = *t.ShippedAt
		}
		loc.PreviousLocation = t.PreviousLocation
	}
	return loc
}

// Place clears every location field and writes the ones of loc.
func (t *Trailer) Place(loc Location) {
	t.Location = loc.Kind
	t.DoorID, t.DoorNumber = "", nil
	t.YardSlotID, t.YardSlotNumber = "", nil
	t.TargetDoorID, t.TargetDoorNumber, t.QueuedAt = "", nil, nil
	t.ShippedAt = nil
	if loc.Kind != LocationShipped {
		t.PreviousLocation = ""
	}

	switch loc.Kind {
	case LocationDoor:
		t.DoorID, t.DoorNumber = loc.DoorID, copyInt(loc.DoorNumber)
	case LocationYardSlot:
		t.YardSlotID, t.YardSlotNumber = loc.YardSlotID, copyInt(loc.YardSlotNumber)
	case LocationQueue:
		at := loc.QueuedAt
		t.TargetDoorID, t.TargetDoorNumber, t.QueuedAt = loc.TargetDoorID, copyInt(loc.TargetDoorNumber), &at
	case LocationShipped:
		at := loc.ShippedAt
		t.ShippedAt = &at
		t.PreviousLocation = loc.PreviousLocation
	}
}

// ResetDwell restarts the dwell clock, keeping the newest MaxDwellResets marks.
func (t *Trailer) ResetDwell(now time.Time, moved bool) {
	t.DwellResets = append(t.DwellResets, now)
	if len(t.DwellResets) > MaxDwellResets {
		t.DwellResets = append([]time.Time(nil), t.DwellResets[len(t.DwellResets)-MaxDwellResets:]...)
	}
	if moved {
		t.CreatedAt = now
	}
}

func (t *Trailer) DisplayName() string {
	if t.Number != "" {
		return t.Number
	}
	return t.ID
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func numberOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func IntPtr(v int) *int { return &v }
