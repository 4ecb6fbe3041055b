package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/square-key-labs/voicebridge/src/calendar"
)

// SessionState accumulates customer details across function calls within
// a single conversation. Field updates and reads may come from different
// goroutines, so access is guarded.
type SessionState struct {
	mu       sync.Mutex
	token    string
	customer calendar.Customer
}

func NewSessionState() *SessionState {
	return &SessionState{token: uuid.NewString()}
}

// Token identifies this conversation in logs.
func (s *SessionState) Token() string {
	return s.token
}

func (s *SessionState) SetContact(name, email, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer.Name = name
	s.customer.Email = email
	s.customer.Phone = phone
}

func (s *SessionState) SetAppointment(appointmentType, appointmentTime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer.AppointmentType = appointmentType
	s.customer.AppointmentTime = appointmentTime
}

// Customer returns a snapshot of the accumulated record.
func (s *SessionState) Customer() calendar.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// ReadyForAppointment reports whether enough data has been collected to
// book: name, email, type and time must all be present.
func (s *SessionState) ReadyForAppointment() bool {
	c := s.Customer()
	return c.Name != "" && c.Email != "" && c.AppointmentType != "" && c.AppointmentTime != ""
}
