package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/square-key-labs/voicebridge/src/calendar"
	"github.com/square-key-labs/voicebridge/src/frames"
	"github.com/square-key-labs/voicebridge/src/logger"
)

// Result is the outcome of one function call. Output is a JSON document
// ready to be sent back verbatim; EndConversation signals that the
// session should be shut down after the response is flushed.
type Result struct {
	Output          string
	EndConversation bool
}

// Dispatcher routes FunctionCallRequest events to their handlers. Every
// request yields exactly one Result; handler panics are converted into
// error payloads instead of propagating.
type Dispatcher struct {
	scheduler calendar.Scheduler
	state     *SessionState
	now       func() time.Time
	log       *logger.Logger
}

func NewDispatcher(scheduler calendar.Scheduler, state *SessionState) *Dispatcher {
	return &Dispatcher{
		scheduler: scheduler,
		state:     state,
		now:       time.Now,
		log:       logger.WithPrefix("Dispatch"),
	}
}

// Dispatch executes the named function and always returns a Result, even
// when the handler fails.
func (d *Dispatcher) Dispatch(ctx context.Context, req frames.FunctionCallRequest) (result Result) {
	d.log.Info("Function call received: %s (id=%s)", req.Name, req.CallID)

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Handler for %s panicked: %v", req.Name, r)
			result = errorResult(fmt.Sprintf("internal error executing %s", req.Name))
		}
	}()

	switch req.Name {
	case "get_customer_info":
		result = d.getCustomerInfo(req.Params)
	case "check_availability":
		result = d.checkAvailability(ctx, req.Params)
	case "schedule_appointment":
		result = d.scheduleAppointment(ctx, req.Params)
	case "end_conversation":
		result = d.endConversation(req.Params)
	default:
		d.log.Warn("Unknown function requested: %s", req.Name)
		result = errorResult(fmt.Sprintf("Unknown function: %s", req.Name))
	}
	return result
}

func (d *Dispatcher) getCustomerInfo(params json.RawMessage) Result {
	var args struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err))
	}
	if args.Name == "" || args.Email == "" {
		return errorResult("name and email are required")
	}

	d.state.SetContact(args.Name, args.Email, args.Phone)
	d.log.Info("Stored customer info for %s", args.Name)

	return successResult(fmt.Sprintf("Customer information stored for %s", args.Name))
}

func (d *Dispatcher) checkAvailability(ctx context.Context, params json.RawMessage) Result {
	var args struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err))
	}

	start, ok := parseISO(args.StartDate)
	if !ok {
		// Fall back to the start of today when the model hands us a
		// malformed or empty date.
		d.log.Info("Invalid start_date %q, using start of today", args.StartDate)
		now := d.now()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	end, ok := parseISO(args.EndDate)
	if !ok {
		if args.EndDate != "" {
			d.log.Info("Invalid end_date %q, using start_date + 7 days", args.EndDate)
		}
		end = start.AddDate(0, 0, 7)
	}

	slots, err := d.scheduler.AvailableSlots(ctx, start, end)
	if err != nil {
		d.log.Error("Availability check failed: %v", err)
		return errorResult(fmt.Sprintf("failed to check availability: %v", err))
	}
	return jsonResult(slots)
}

func (d *Dispatcher) scheduleAppointment(ctx context.Context, params json.RawMessage) Result {
	var args struct {
		AppointmentType string `json:"appointment_type"`
		AppointmentTime string `json:"appointment_time"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err))
	}

	d.state.SetAppointment(args.AppointmentType, args.AppointmentTime)

	// Do not touch the calendar until name and email have been collected.
	if !d.state.ReadyForAppointment() {
		d.log.Warn("Incomplete customer data, refusing to schedule")
		return errorResult("Incomplete customer data for appointment")
	}

	confirmation, err := d.scheduler.Schedule(ctx, d.state.Customer())
	if err != nil {
		d.log.Error("Scheduling failed: %v", err)
		return errorResult(fmt.Sprintf("failed to schedule appointment: %v", err))
	}
	return jsonResult(confirmation)
}

func (d *Dispatcher) endConversation(params json.RawMessage) Result {
	var args struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params, &args); err == nil && args.Message == "" {
		args.Message = "Thank you for scheduling with us!"
	} else if err != nil {
		args.Message = "Thank you for scheduling with us!"
	}

	d.log.Info("Conversation ending: %s", args.Message)
	res := successResult(args.Message)
	res.EndConversation = true
	return res
}

// parseISO accepts the timestamp shapes the model tends to produce.
func parseISO(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func successResult(message string) Result {
	return jsonResult(map[string]string{
		"status":  "success",
		"message": message,
	})
}

func errorResult(message string) Result {
	return jsonResult(map[string]string{"error": message})
}

func jsonResult(v interface{}) Result {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshaling a map of strings or a plain result struct cannot
		// fail in practice, but never send an empty output.
		return Result{Output: fmt.Sprintf(`{"error":"failed to encode result: %v"}`, err)}
	}
	return Result{Output: string(data)}
}
