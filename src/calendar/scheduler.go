package calendar

import (
	"context"
	"time"
)

// Customer is the data required to put an appointment on the calendar
type Customer struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	AppointmentType string `json:"appointment_type"`
	AppointmentTime string `json:"appointment_time"` // ISO-8601 local, no zone
}

// SlotsResult lists open appointment start times as ISO-8601 local strings
type SlotsResult struct {
	AvailableSlots []string `json:"available_slots"`
}

// Confirmation is the backend's acknowledgment of a booked appointment
type Confirmation struct {
	Status          string `json:"status"`
	EventID         string `json:"event_id"`
	EventLink       string `json:"event_link"`
	AppointmentTime string `json:"appointment_time"`
}

// Scheduler is the scheduling backend as seen by the relay: two
// operations, each returning either a result or an error. Backend errors
// are propagated verbatim to the agent inside function-call responses; the
// agent phrases them for the caller.
type Scheduler interface {
	AvailableSlots(ctx context.Context, start, end time.Time) (*SlotsResult, error)
	Schedule(ctx context.Context, c Customer) (*Confirmation, error)
}

// SlotDuration is the fixed appointment length
const SlotDuration = time.Hour

// Business hours within which candidate slots are generated
const (
	businessOpenHour  = 9
	businessCloseHour = 17
)
