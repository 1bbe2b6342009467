package messaging

import (
	"errors"

	"github.com/nats-io/nats.go"
)

const (
	rsvpStream       = "RSVPS"
	acceptedPrefix   = "rsvp.accepted."
	AcceptedWildcard = acceptedPrefix + ">"
)

// AcceptedSubject is the subject an accepted submission for eventID is published on.
func AcceptedSubject(eventID string) string {
	return acceptedPrefix + eventID
}

// EnsureStreams creates (or validates) the stream holding rsvp.accepted.>.
func EnsureStreams(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(rsvpStream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return err
		}
		if _, addErr := js.AddStream(&nats.StreamConfig{
			Name:      rsvpStream,
			Subjects:  []string{AcceptedWildcard},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
			Replicas:  1,
		}); addErr != nil {
			return addErr
		}
	}
	return nil
}
