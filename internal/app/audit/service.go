package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/platform/metrics"
)

var ErrInvalidPayload = errors.New("invalid rsvp accepted payload")

type Recorder interface {
	Record(ctx context.Context, msg contracts.RsvpAccepted, streamSeq uint64) (bool, error)
}

type Service struct {
	Recorder Recorder
	Log      zerolog.Logger
}

func NewService(recorder Recorder, log zerolog.Logger) *Service {
	return &Service{Recorder: recorder, Log: log}
}

// Handle records one broker message. ErrInvalidPayload means the message can
// never succeed and should not be redelivered.
func (s *Service) Handle(ctx context.Context, payload []byte, streamSeq uint64) error {
	var msg contracts.RsvpAccepted
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.AuditMessages.WithLabelValues("invalid").Inc()
		return ErrInvalidPayload
	}
	if msg.MessageID == "" || msg.EventID == "" || msg.Submission.ID <= 0 {
		metrics.AuditMessages.WithLabelValues("invalid").Inc()
		return ErrInvalidPayload
	}

	fresh, err := s.Recorder.Record(ctx, msg, streamSeq)
	if err != nil {
		metrics.AuditMessages.WithLabelValues("error").Inc()
		return err
	}
	if !fresh {
		metrics.AuditMessages.WithLabelValues("duplicate").Inc()
		s.Log.Debug().Str("message_id", msg.MessageID).Msg("duplicate rsvp accepted message")
		return nil
	}

	metrics.AuditMessages.WithLabelValues("recorded").Inc()
	s.Log.Info().
		Str("event_id", msg.EventID).
		Int64("submission_id", msg.Submission.ID).
		Int("children", msg.Submission.Children).
		Uint64("stream_seq", streamSeq).
		Msg("rsvp recorded")
	return nil
}
