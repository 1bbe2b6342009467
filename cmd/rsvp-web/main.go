package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rsvp-demo/project/internal/app/events"
	"github.com/rsvp-demo/project/internal/app/rsvp"
	"github.com/rsvp-demo/project/internal/app/web"
	"github.com/rsvp-demo/project/internal/platform/env"
	"github.com/rsvp-demo/project/internal/platform/logging"
	"github.com/rsvp-demo/project/internal/platform/metrics"
	"github.com/rsvp-demo/project/internal/platform/natsutil"
)

func main() {
	envErr := env.Load()
	log := logging.New("rsvp-web", env.String("LOG_LEVEL", "info"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring malformed env file")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := env.String("RSVP_WEB_ADDR", env.DefaultWebAddr)
	natsURL := env.String("NATS_URL", "")
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second)
	devMode := env.DevMode()

	catalog := events.DefaultCatalog()
	store := rsvp.NewStore()
	metrics.RegisterGaugeFunc("rsvp_submissions_issued", "Submissions issued since process start.", func() float64 {
		return float64(store.Count())
	})

	var publish rsvp.PublishFunc
	var broker *natsutil.Client
	if natsURL != "" {
		client, err := natsutil.ConnectJetStreamWithRetry(natsURL, env.Duration("NATS_CONNECT_TIMEOUT", 20*time.Second))
		if err != nil {
			log.Fatal().Err(err).Str("nats_url", natsURL).Msg("connect broker")
		}
		defer client.Close()
		broker = client
		publish = natsutil.JetStreamPublisher{JS: client.JS}.Publish
	} else {
		log.Info().Msg("NATS_URL not set, accepted rsvps are not published")
	}

	service := rsvp.NewService(rsvp.NewValidator(catalog.Known), store, publish, log)
	handler := web.NewHandler(service, catalog, log, env.String("BASE_URL", ""), devMode)
	handler.FetchTimeout = env.Duration("EVENT_FETCH_TIMEOUT", web.DefaultFetchTimeout)
	if broker != nil {
		handler.Ready = func(context.Context) error { return broker.Ready() }
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", addr).Bool("dev_mode", devMode).Msg("rsvp web listening")
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("http server failed")
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Int64("issued", store.Count()).Msg("rsvp web stopped")
}
