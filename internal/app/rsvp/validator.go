package rsvp

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/rsvp-demo/project/internal/contracts"
)

const (
	MinChildren = 0
	MaxChildren = 6
)

var (
	ErrInvalidBody             = errors.New("invalid JSON body")
	ErrUnknownEvent            = errors.New("unknown eventId")
	ErrInvalidChildrenCount    = errors.New("childrenCount must be an integer")
	ErrOutOfRange              = errors.New("childrenCount out of range")
	ErrAcknowledgementRequired = errors.New("acknowledgement required")
)

// Validator turns an untrusted submission payload into a typed request.
// Checks run in a fixed order and the first failure is returned.
type Validator struct {
	Known func(eventID string) bool
}

func NewValidator(known func(eventID string) bool) *Validator {
	return &Validator{Known: known}
}

func (v *Validator) Validate(raw []byte) (contracts.RsvpRequest, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return contracts.RsvpRequest{}, ErrInvalidBody
	}

	eventID, ok := decodeString(body["eventId"])
	if !ok || v.Known == nil || !v.Known(eventID) {
		return contracts.RsvpRequest{}, ErrUnknownEvent
	}

	count, ok := decodeInteger(body["childrenCount"])
	if !ok {
		return contracts.RsvpRequest{}, ErrInvalidChildrenCount
	}
	if count < MinChildren || count > MaxChildren {
		return contracts.RsvpRequest{}, ErrOutOfRange
	}

	if !bytes.Equal(bytes.TrimSpace(body["acknowledgement"]), []byte("true")) {
		return contracts.RsvpRequest{}, ErrAcknowledgementRequired
	}

	return contracts.RsvpRequest{
		EventID:         eventID,
		ChildrenCount:   int(count),
		Acknowledgement: true,
	}, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeInteger accepts only JSON numbers with an integral finite value.
// The result stays a float64 so huge values fail the range check instead of overflowing.
func decodeInteger(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return f, true
}
