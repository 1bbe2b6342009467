package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rsvp-demo/project/internal/app/audit"
	"github.com/rsvp-demo/project/internal/messaging"
	"github.com/rsvp-demo/project/internal/platform/env"
	"github.com/rsvp-demo/project/internal/platform/logging"
	"github.com/rsvp-demo/project/internal/platform/metrics"
	"github.com/rsvp-demo/project/internal/platform/natsutil"
)

func main() {
	envErr := env.Load()
	log := logging.New("rsvp-audit", env.String("LOG_LEVEL", "info"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring malformed env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	natsURL := env.String("NATS_URL", nats.DefaultURL)
	metricsAddr := env.String("AUDIT_METRICS_ADDR", ":9098")

	tally := audit.NewTallyWithWindow(env.Int("AUDIT_DEDUPE_WINDOW", audit.DefaultDedupeWindow))
	service := audit.NewService(tally, log)
	metrics.RegisterGaugeFunc("rsvp_audit_recorded", "Distinct accepted RSVPs recorded by the audit sink.", func() float64 {
		return float64(tally.Total())
	})

	client, err := natsutil.ConnectJetStreamWithRetry(natsURL, env.Duration("NATS_CONNECT_TIMEOUT", 20*time.Second))
	if err != nil {
		log.Fatal().Err(err).Str("nats_url", natsURL).Msg("connect broker")
	}
	defer client.Close()

	sub, err := client.JS.QueueSubscribe(messaging.AcceptedWildcard, "rsvp-audit", func(msg *nats.Msg) {
		var streamSeq uint64
		if meta, metaErr := msg.Metadata(); metaErr == nil {
			streamSeq = meta.Sequence.Stream
		}

		handleCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := service.Handle(handleCtx, msg.Data, streamSeq); err != nil {
			if errors.Is(err, audit.ErrInvalidPayload) {
				log.Warn().Err(err).Str("subject", msg.Subject).Msg("discarding invalid payload")
				_ = msg.Term()
				return
			}
			log.Error().Err(err).Msg("audit record failed")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, nats.ManualAck())
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe")
	}
	log.Info().Str("subject", sub.Subject).Msg("rsvp audit listening")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if err := client.Ready(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	<-ctx.Done()
	_ = sub.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	for _, et := range tally.Snapshot() {
		log.Info().Str("event_id", et.EventID).Int("rsvps", et.RSVPs).Int("children", et.Children).Msg("final tally")
	}
}
