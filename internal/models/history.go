package models

import "time"

type Action string

const (
	ActionTrailerCreated        Action = "TRAILER_CREATED"
	ActionTrailerUpdated        Action = "TRAILER_UPDATED"
	ActionMovedToDoor           Action = "MOVED_TO_DOOR"
	ActionMovedToYard           Action = "MOVED_TO_YARD"
	ActionMovedToYardSlot       Action = "MOVED_TO_YARD_SLOT"
	ActionMovedToStaging        Action = "MOVED_TO_STAGING"
	ActionCheckedIn             Action = "CHECKED_IN"
	ActionQueued                Action = "TRAILER_QUEUED"
	ActionQueueReassigned       Action = "QUEUE_REASSIGNED"
	ActionQueueCancelled        Action = "QUEUE_CANCELLED"
	ActionAppointmentAdded      Action = "APPOINTMENT_ADDED"
	ActionAppointmentsReordered Action = "APPOINTMENTS_REORDERED"
	ActionAssignedFromQueue     Action = "TRAILER_ASSIGNED_FROM_QUEUE"
	ActionTrailerShipped        Action = "TRAILER_SHIPPED"
	ActionTrailerDeleted        Action = "TRAILER_DELETED"
	ActionDwellReset            Action = "DWELL_RESET"
	ActionDoorCreated           Action = "DOOR_CREATED"
	ActionDoorUpdated           Action = "DOOR_UPDATED"
	ActionDoorDeleted           Action = "DOOR_DELETED"
	ActionDoorsReordered        Action = "DOORS_REORDERED"
	ActionYardSlotCreated       Action = "YARD_SLOT_CREATED"
	ActionYardSlotDeleted       Action = "YARD_SLOT_DELETED"
	ActionCarrierCreated        Action = "CARRIER_CREATED"
	ActionCarrierUpdated        Action = "CARRIER_UPDATED"
	ActionCarrierDeleted        Action = "CARRIER_DELETED"
)

// ReasonReplaced помечает выселение трейлера, чьё место занял другой.
const ReasonReplaced = "replaced by new trailer"

type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// QueueAssignment is the folded auto-assignment fact of a triggering entry.
type QueueAssignment struct {
	Action        Action `json:"action"`
	TrailerID     string `json:"trailerId"`
	TrailerNumber string `json:"trailerNumber,omitempty"`
	Carrier       string `json:"carrier,omitempty"`
	DoorID        string `json:"doorId"`
	DoorNumber    *int   `json:"doorNumber,omitempty"`
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`

	TrailerID     string `json:"trailerId,omitempty"`
	TrailerNumber string `json:"trailerNumber,omitempty"`
	Carrier       string `json:"carrier,omitempty"`
	DoorID        string `json:"doorId,omitempty"`
	DoorNumber    *int   `json:"doorNumber,omitempty"`

	YardSlotNumber *int `json:"yardSlotNumber,omitempty"`

	PreviousLocation string `json:"previousLocation,omitempty"`
	NewLocation      string `json:"newLocation,omitempty"`
	Reason           string `json:"reason,omitempty"`

	Changes           []FieldChange    `json:"changes,omitempty"`
	AssignedFromQueue *QueueAssignment `json:"assignedFromQueue,omitempty"`
}

// HistoryFilter: параметры выборки журнала. Нулевые поля не фильтруют.
type HistoryFilter struct {
	From      *time.Time
	To        *time.Time
	Search    string
	TrailerID string
	Actions   []Action
	Limit     int
	Offset    int
}
