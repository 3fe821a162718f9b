package models

import "strconv"

type DoorType string

const (
	DoorTypeNormal DoorType = "normal"
	DoorTypeBlank  DoorType = "blank"
)

// Статус пустой двери; занятая дверь повторяет статус трейлера.
const DoorStatusEmpty = "empty"

type Door struct {
	ID        string   `json:"id"`
	Number    *int     `json:"number"`
	Order     int      `json:"order"`
	TrailerID *string  `json:"trailerId"`
	Status    string   `json:"status"`
	InService bool     `json:"inService"`
	Type      DoorType `json:"type"`
	LabelText *string  `json:"labelText"`
}

// Dockable reports whether a trailer may be placed at (or queued for) the door.
func (d *Door) Dockable() bool {
	return d.InService && d.Type != DoorTypeBlank
}

func (d *Door) Occupied() bool {
	return d.TrailerID != nil
}

// Occupy mirrors the trailer onto the door.
func (d *Door) Occupy(t *Trailer) {
	id := t.ID
	d.TrailerID = &id
	d.Status = string(t.Status)
}

func (d *Door) Vacate() {
	d.TrailerID = nil
	d.Status = DoorStatusEmpty
}

func (d *Door) DisplayName() string {
	switch {
	case d.Number != nil:
		return "Door " + strconv.Itoa(*d.Number)
	case d.LabelText != nil && *d.LabelText != "":
		return *d.LabelText
	default:
		return "Door"
	}
}

type YardSlot struct {
	ID        string  `json:"id"`
	Number    int     `json:"number"`
	TrailerID *string `json:"trailerId"`
}

func (s *YardSlot) Occupied() bool {
	return s.TrailerID != nil
}

func (s *YardSlot) Occupy(t *Trailer) {
	id := t.ID
	s.TrailerID = &id
}

func (s *YardSlot) Vacate() {
	s.TrailerID = nil
}
