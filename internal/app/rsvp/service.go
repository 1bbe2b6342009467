package rsvp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/messaging"
	"github.com/rsvp-demo/project/internal/platform/metrics"
)

type PublishFunc func(ctx context.Context, subject string, payload []byte) error

type Service struct {
	Validator      *Validator
	Store          *Store
	Publish        PublishFunc
	PublishTimeout time.Duration
	Log            zerolog.Logger
	Now            func() time.Time
	NewID          func() string
}

func NewService(validator *Validator, store *Store, publish PublishFunc, log zerolog.Logger) *Service {
	return &Service{
		Validator:      validator,
		Store:          store,
		Publish:        publish,
		PublishTimeout: 2 * time.Second,
		Log:            log,
		Now:            func() time.Time { return time.Now().UTC() },
		NewID:          nuid.Next,
	}
}

// Submit validates raw and issues a Submission. Broker delivery of the
// accepted record is best-effort and never fails the submission.
func (s *Service) Submit(ctx context.Context, raw []byte) (contracts.Submission, error) {
	req, err := s.Validator.Validate(raw)
	if err != nil {
		metrics.RsvpSubmissions.WithLabelValues(Outcome(err)).Inc()
		return contracts.Submission{}, err
	}

	saved := s.Store.Accept(req.ChildrenCount)
	metrics.RsvpSubmissions.WithLabelValues(Outcome(nil)).Inc()
	s.Log.Info().
		Str("event_id", req.EventID).
		Int64("submission_id", saved.ID).
		Int("children", saved.Children).
		Msg("rsvp accepted")

	s.publishAccepted(ctx, req.EventID, saved)
	return saved, nil
}

func (s *Service) publishAccepted(ctx context.Context, eventID string, saved contracts.Submission) {
	if s.Publish == nil {
		return
	}
	payload, err := json.Marshal(contracts.RsvpAccepted{
		MessageID:  s.NewID(),
		EventID:    eventID,
		Submission: saved,
		OccurredAt: s.Now(),
	})
	if err != nil {
		s.Log.Error().Err(err).Msg("encode rsvp accepted message")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.PublishTimeout)
	defer cancel()
	if err := s.Publish(pubCtx, messaging.AcceptedSubject(eventID), payload); err != nil {
		metrics.BrokerPublishFailures.Inc()
		s.Log.Warn().Err(err).Int64("submission_id", saved.ID).Msg("publish rsvp accepted failed")
	}
}

// Outcome maps a Submit error to a stable metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrInvalidBody):
		return "invalid_body"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrInvalidChildrenCount):
		return "invalid_children_count"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrAcknowledgementRequired):
		return "acknowledgement_required"
	default:
		return "error"
	}
}
