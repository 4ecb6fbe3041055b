package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square-key-labs/voicebridge/src/calendar"
	"github.com/square-key-labs/voicebridge/src/frames"
)

// fakeScheduler records calls and returns canned results.
type fakeScheduler struct {
	slotsCalls    []struct{ start, end time.Time }
	scheduleCalls []calendar.Customer

	slots       *calendar.SlotsResult
	slotsErr    error
	confirm     *calendar.Confirmation
	scheduleErr error
	panicOn     string
}

func (f *fakeScheduler) AvailableSlots(_ context.Context, start, end time.Time) (*calendar.SlotsResult, error) {
	if f.panicOn == "slots" {
		panic("slots exploded")
	}
	f.slotsCalls = append(f.slotsCalls, struct{ start, end time.Time }{start, end})
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	return f.slots, nil
}

func (f *fakeScheduler) Schedule(_ context.Context, c calendar.Customer) (*calendar.Confirmation, error) {
	if f.panicOn == "schedule" {
		panic("schedule exploded")
	}
	f.scheduleCalls = append(f.scheduleCalls, c)
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return f.confirm, nil
}

func newTestDispatcher(sched calendar.Scheduler) (*Dispatcher, *SessionState) {
	state := NewSessionState()
	d := NewDispatcher(sched, state)
	d.now = func() time.Time {
		return time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)
	}
	return d, state
}

func call(name, params string) frames.FunctionCallRequest {
	return frames.FunctionCallRequest{
		Name:   name,
		CallID: "fc-1",
		Params: json.RawMessage(params),
	}
}

func decodeOutput(t *testing.T, result Result) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Output), &out))
	return out
}

func TestGetCustomerInfoStoresContact(t *testing.T) {
	d, state := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(),
		call("get_customer_info", `{"name":"Ada Lovelace","email":"ada@example.com","phone":"+15551234"}`))

	out := decodeOutput(t, result)
	assert.Equal(t, "success", out["status"])
	assert.Contains(t, out["message"], "Ada Lovelace")
	assert.False(t, result.EndConversation)

	c := state.Customer()
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.Equal(t, "+15551234", c.Phone)
}

func TestGetCustomerInfoRequiresNameAndEmail(t *testing.T) {
	d, state := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(),
		call("get_customer_info", `{"name":"Ada Lovelace"}`))

	out := decodeOutput(t, result)
	assert.Contains(t, out["error"], "required")
	assert.Empty(t, state.Customer().Name)
}

func TestCheckAvailabilityPassesParsedRange(t *testing.T) {
	sched := &fakeScheduler{slots: &calendar.SlotsResult{AvailableSlots: []string{"2025-03-11T09:00:00"}}}
	d, _ := newTestDispatcher(sched)

	result := d.Dispatch(context.Background(),
		call("check_availability", `{"start_date":"2025-03-11T00:00:00","end_date":"2025-03-12T00:00:00"}`))

	require.Len(t, sched.slotsCalls, 1)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].start)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].end)

	out := decodeOutput(t, result)
	assert.Contains(t, out, "available_slots")
}

func TestCheckAvailabilityBadStartFallsBackToToday(t *testing.T) {
	sched := &fakeScheduler{slots: &calendar.SlotsResult{}}
	d, _ := newTestDispatcher(sched)

	d.Dispatch(context.Background(), call("check_availability", `{"start_date":"next tuesday"}`))

	require.Len(t, sched.slotsCalls, 1)
	// Malformed start dates collapse to the start of today.
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].start)
	// And the window defaults to a week.
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].end)
}

func TestCheckAvailabilityBadEndDefaultsToWeek(t *testing.T) {
	sched := &fakeScheduler{slots: &calendar.SlotsResult{}}
	d, _ := newTestDispatcher(sched)

	d.Dispatch(context.Background(),
		call("check_availability", `{"start_date":"2025-03-11","end_date":"whenever"}`))

	require.Len(t, sched.slotsCalls, 1)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].start)
	assert.Equal(t, time.Date(2025, 3, 18, 0, 0, 0, 0, time.Local), sched.slotsCalls[0].end)
}

func TestCheckAvailabilitySchedulerError(t *testing.T) {
	sched := &fakeScheduler{slotsErr: errors.New("calendar down")}
	d, _ := newTestDispatcher(sched)

	result := d.Dispatch(context.Background(),
		call("check_availability", `{"start_date":"2025-03-11"}`))

	out := decodeOutput(t, result)
	assert.Contains(t, out["error"], "calendar down")
	assert.False(t, result.EndConversation)
}

func TestScheduleAppointmentRequiresContactFirst(t *testing.T) {
	sched := &fakeScheduler{}
	d, _ := newTestDispatcher(sched)

	result := d.Dispatch(context.Background(),
		call("schedule_appointment", `{"appointment_type":"Consultation","appointment_time":"2025-03-11T10:00:00"}`))

	out := decodeOutput(t, result)
	assert.Equal(t, "Incomplete customer data for appointment", out["error"])
	// The backend must not be touched without name and email.
	assert.Empty(t, sched.scheduleCalls)
}

func TestScheduleAppointmentAfterContact(t *testing.T) {
	sched := &fakeScheduler{confirm: &calendar.Confirmation{
		Status:          "success",
		EventID:         "evt-1",
		EventLink:       "https://calendar.example/evt-1",
		AppointmentTime: "2025-03-11T10:00:00",
	}}
	d, _ := newTestDispatcher(sched)

	d.Dispatch(context.Background(),
		call("get_customer_info", `{"name":"Ada","email":"ada@example.com"}`))
	result := d.Dispatch(context.Background(),
		call("schedule_appointment", `{"appointment_type":"Consultation","appointment_time":"2025-03-11T10:00:00"}`))

	require.Len(t, sched.scheduleCalls, 1)
	booked := sched.scheduleCalls[0]
	assert.Equal(t, "Ada", booked.Name)
	assert.Equal(t, "Consultation", booked.AppointmentType)
	assert.Equal(t, "2025-03-11T10:00:00", booked.AppointmentTime)

	out := decodeOutput(t, result)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "evt-1", out["event_id"])
}

func TestEndConversationSignalsShutdown(t *testing.T) {
	d, _ := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(),
		call("end_conversation", `{"message":"Goodbye!"}`))

	assert.True(t, result.EndConversation)
	out := decodeOutput(t, result)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Goodbye!", out["message"])
}

func TestEndConversationDefaultMessage(t *testing.T) {
	d, _ := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(), call("end_conversation", `{}`))

	assert.True(t, result.EndConversation)
	out := decodeOutput(t, result)
	assert.Equal(t, "Thank you for scheduling with us!", out["message"])
}

func TestUnknownFunction(t *testing.T) {
	d, _ := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(), call("transfer_call", `{}`))

	out := decodeOutput(t, result)
	assert.Equal(t, "Unknown function: transfer_call", out["error"])
	assert.False(t, result.EndConversation)
}

func TestInvalidParametersProduceErrorOutput(t *testing.T) {
	d, _ := newTestDispatcher(&fakeScheduler{})

	result := d.Dispatch(context.Background(), call("get_customer_info", `{"name":`))

	out := decodeOutput(t, result)
	assert.Contains(t, out["error"], "invalid parameters")
}

func TestHandlerPanicYieldsErrorResult(t *testing.T) {
	sched := &fakeScheduler{panicOn: "slots"}
	d, _ := newTestDispatcher(sched)

	result := d.Dispatch(context.Background(),
		call("check_availability", `{"start_date":"2025-03-11"}`))

	// A panicking handler still produces exactly one response payload.
	out := decodeOutput(t, result)
	assert.Contains(t, out["error"], "check_availability")
	assert.False(t, result.EndConversation)
}

func TestSessionStateReadiness(t *testing.T) {
	state := NewSessionState()
	assert.NotEmpty(t, state.Token())
	assert.False(t, state.ReadyForAppointment())

	state.SetContact("Ada", "ada@example.com", "")
	assert.False(t, state.ReadyForAppointment())

	state.SetAppointment("Review", "2025-03-11T10:00:00")
	assert.True(t, state.ReadyForAppointment())
}
