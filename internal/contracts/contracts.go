package contracts

import "time"

// EventData is the public shape of an event as served by the lookup endpoint.
type EventData struct {
	ID      string `json:"id"`
	Venue   string `json:"venue"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Date    string `json:"date,omitempty"`
}

// RsvpRequest is the untrusted body of POST /api/rsvp.
type RsvpRequest struct {
	EventID         string `json:"eventId"`
	ChildrenCount   int    `json:"childrenCount"`
	Acknowledgement bool   `json:"acknowledgement"`
}

// Submission is the record issued for an accepted RSVP.
type Submission struct {
	ID        int64  `json:"id"`
	Children  int    `json:"children"`
	Timestamp string `json:"timestamp"`
}

// RsvpResponse is the envelope returned by POST /api/rsvp.
type RsvpResponse struct {
	OK    bool        `json:"ok"`
	Saved *Submission `json:"saved,omitempty"`
	Error string      `json:"error,omitempty"`
}

// RsvpAccepted is published by the web service and consumed by the audit sink.
type RsvpAccepted struct {
	MessageID  string     `json:"message_id"`
	EventID    string     `json:"event_id"`
	Submission Submission `json:"submission"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
