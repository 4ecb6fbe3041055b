package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/square-key-labs/voicebridge/src/services/deepgram"
)

const promptTemplate = `You are a friendly and professional appointment scheduler. Your role is to assist customers in scheduling appointments in Google Calendar.

CURRENT DATE AND TIME CONTEXT:
Today is %s. Use this as context when discussing appointments. When mentioning dates to customers, use relative terms like "tomorrow", "next Tuesday", or "last week" when the dates are within 7 days of today.

PERSONALITY & TONE:
- Be warm, professional, and conversational
- Use natural, flowing speech (avoid bullet points or listing)
- Show empathy and patience
- Collect all necessary information for scheduling an appointment

INFORMATION TO COLLECT:
- Customer name
- Customer email (required for calendar invitation)
- Customer phone number (optional)
- Appointment type (Consultation, Follow-up, Review, Planning)
- Preferred date and time for the appointment

FUNCTION RESPONSES:
When receiving function results, format responses naturally:

1. For available slots:
   - "I have a few openings next week. Would you prefer Tuesday at 2 PM or Wednesday at 3 PM?"

2. For appointment confirmation:
   - "Great! I've scheduled your [appointment type] for [date] at [time]. You'll receive an email confirmation shortly."

3. For errors:
   - Never expose technical details
   - Say something like "I'm having trouble accessing the calendar right now" or "Could you please try again?"

EXAMPLES OF GOOD RESPONSES:
- "I'd be happy to schedule an appointment for you. Could I get your name and email address?"
- "I see you'd like a consultation. Let me check what times are available next week."
- "I've found a few available slots. Would Tuesday at 2 PM work for you?"

FILLER PHRASES:
When you need to indicate you're looking something up, use phrases like:
- "Let me check the calendar for available slots..."
- "One moment while I schedule that appointment..."
- "I'm checking availability for that date..."
`

// Instructions renders the agent prompt anchored to the given time.
func Instructions(now time.Time) string {
	return fmt.Sprintf(promptTemplate, now.Format("Monday, January 2, 2006 at 3:04 PM"))
}

// Greeting is spoken by the agent as soon as settings are applied.
const Greeting = "Hello! I'm here to help you schedule an appointment. Could I start by getting your name and email address?"

// FunctionDefinitions returns the scheduling function schemas advertised
// to the voice agent.
func FunctionDefinitions() []deepgram.Function {
	return []deepgram.Function{
		{
			Name:        "get_customer_info",
			Description: "Get information about the customer for scheduling an appointment",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"name": {
						"type": "string",
						"description": "Customer's full name"
					},
					"email": {
						"type": "string",
						"description": "Customer's email address for calendar invitation"
					},
					"phone": {
						"type": "string",
						"description": "Customer's phone number (optional)"
					}
				},
				"required": ["name", "email"]
			}`),
		},
		{
			Name:        "check_availability",
			Description: "Check available appointment slots within a date range",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"start_date": {
						"type": "string",
						"description": "Start date in ISO format (YYYY-MM-DDTHH:MM:SS). Usually today's date for immediate availability checks."
					},
					"end_date": {
						"type": "string",
						"description": "End date in ISO format. Optional - defaults to 7 days after start_date."
					}
				},
				"required": ["start_date"]
			}`),
		},
		{
			Name:        "schedule_appointment",
			Description: "Schedule a new appointment in Google Calendar",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"appointment_type": {
						"type": "string",
						"description": "Type of appointment",
						"enum": ["Consultation", "Follow-up", "Review", "Planning"]
					},
					"appointment_time": {
						"type": "string",
						"description": "Appointment date and time in ISO format (YYYY-MM-DDTHH:MM:SS)"
					}
				},
				"required": ["appointment_type", "appointment_time"]
			}`),
		},
		{
			Name:        "end_conversation",
			Description: "End the conversation after scheduling is complete",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"message": {
						"type": "string",
						"description": "Farewell message to display to the user"
					}
				},
				"required": ["message"]
			}`),
		},
	}
}
