package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/auth/httptransport"
	"github.com/cenkalti/backoff/v4"

	"github.com/square-key-labs/voicebridge/src/logger"
)

const (
	calendarAPIBase = "https://www.googleapis.com/calendar/v3"
	calendarScope   = "https://www.googleapis.com/auth/calendar"

	maxAPIRetries = 3
)

// GoogleConfig holds configuration for the Google Calendar backend
type GoogleConfig struct {
	CalendarID string         // defaults to "primary"
	TimeZone   *time.Location // zone stamped onto created events
}

// GoogleScheduler books appointments on a Google Calendar. Requests go
// through the Calendar v3 REST endpoints with detected application
// credentials; transient failures are retried with exponential backoff.
type GoogleScheduler struct {
	client     *http.Client
	calendarID string
	timeZone   *time.Location
	log        *logger.Logger
}

// NewGoogleScheduler builds an authenticated scheduler using application
// default credentials.
func NewGoogleScheduler(ctx context.Context, cfg GoogleConfig) (*GoogleScheduler, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{calendarScope},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect calendar credentials: %w", err)
	}

	client, err := httptransport.NewClient(&httptransport.Options{
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	tz := cfg.TimeZone
	if tz == nil {
		tz = time.Local
	}

	return &GoogleScheduler{
		client:     client,
		calendarID: calendarID,
		timeZone:   tz,
		log:        logger.WithPrefix("Calendar"),
	}, nil
}

type freeBusyRequest struct {
	TimeMin string              `json:"timeMin"`
	TimeMax string              `json:"timeMax"`
	Items   []freeBusyRequestID `json:"items"`
}

type freeBusyRequestID struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"busy"`
	} `json:"calendars"`
}

// AvailableSlots queries busy times over [start, end] and returns every
// free one-hour business-hours slot.
func (g *GoogleScheduler) AvailableSlots(ctx context.Context, start, end time.Time) (*SlotsResult, error) {
	g.log.Info("Checking availability from %s to %s", isoLocal(start), isoLocal(end))

	reqBody := freeBusyRequest{
		TimeMin: start.In(g.timeZone).Format(time.RFC3339),
		TimeMax: end.In(g.timeZone).Format(time.RFC3339),
		Items:   []freeBusyRequestID{{ID: g.calendarID}},
	}

	var fb freeBusyResponse
	if err := g.doJSON(ctx, http.MethodPost, calendarAPIBase+"/freeBusy", reqBody, &fb); err != nil {
		return nil, fmt.Errorf("freebusy query failed: %w", err)
	}

	var busy []busyInterval
	for _, b := range fb.Calendars[g.calendarID].Busy {
		bs, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			g.log.Warn("Skipping unparsable busy start %q: %v", b.Start, err)
			continue
		}
		be, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			g.log.Warn("Skipping unparsable busy end %q: %v", b.End, err)
			continue
		}
		busy = append(busy, busyInterval{start: bs, end: be})
	}

	available := filterAvailable(candidateSlots(start, end), busy)

	result := &SlotsResult{AvailableSlots: make([]string, 0, len(available))}
	for _, slot := range available {
		result.AvailableSlots = append(result.AvailableSlots, isoLocal(slot))
	}

	g.log.Info("Found %d available slots (%d busy intervals)", len(result.AvailableSlots), len(busy))
	return result, nil
}

type insertedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// Schedule inserts a one-hour event with the customer as attendee and
// email/popup reminders enabled.
func (g *GoogleScheduler) Schedule(ctx context.Context, c Customer) (*Confirmation, error) {
	g.log.Info("Scheduling %s for %s at %s", c.AppointmentType, c.Name, c.AppointmentTime)

	startAt, err := time.ParseInLocation("2006-01-02T15:04:05", c.AppointmentTime, g.timeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment time %q: %w", c.AppointmentTime, err)
	}

	phone := c.Phone
	if phone == "" {
		phone = "N/A"
	}

	body := map[string]interface{}{
		"summary":     fmt.Sprintf("%s with %s", c.AppointmentType, c.Name),
		"description": fmt.Sprintf("Phone: %s", phone),
		"start": map[string]string{
			"dateTime": isoLocal(startAt),
			"timeZone": g.timeZone.String(),
		},
		"end": map[string]string{
			"dateTime": isoLocal(startAt.Add(SlotDuration)),
			"timeZone": g.timeZone.String(),
		},
		"attendees": []map[string]string{
			{"email": c.Email},
		},
		"reminders": map[string]interface{}{
			"useDefault": false,
			"overrides": []map[string]interface{}{
				{"method": "email", "minutes": 24 * 60},
				{"method": "popup", "minutes": 30},
			},
		},
	}

	insertURL := fmt.Sprintf("%s/calendars/%s/events?sendUpdates=all",
		calendarAPIBase, url.PathEscape(g.calendarID))

	var created insertedEvent
	if err := g.doJSON(ctx, http.MethodPost, insertURL, body, &created); err != nil {
		return nil, fmt.Errorf("event insert failed: %w", err)
	}

	g.log.Info("Event created: %s", created.HTMLLink)
	return &Confirmation{
		Status:          "success",
		EventID:         created.ID,
		EventLink:       created.HTMLLink,
		AppointmentTime: c.AppointmentTime,
	}, nil
}

// doJSON performs one JSON round trip with retry on transient failures.
// 4xx responses are permanent; 429 and 5xx are retried.
func (g *GoogleScheduler) doJSON(ctx context.Context, method, url string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("calendar API returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, respBody))
		}

		return json.Unmarshal(respBody, out)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAPIRetries), ctx)

	return backoff.Retry(operation, policy)
}
