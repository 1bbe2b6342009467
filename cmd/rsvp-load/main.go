package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/app/events"
	"github.com/rsvp-demo/project/internal/app/loadgen"
	"github.com/rsvp-demo/project/internal/platform/env"
	"github.com/rsvp-demo/project/internal/platform/logging"
	"github.com/rsvp-demo/project/internal/platform/metrics"
	"github.com/rsvp-demo/project/internal/rsvpclient"
)

func main() {
	envErr := env.Load()
	log := logging.New("rsvp-load", env.String("LOG_LEVEL", "info"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("ignoring malformed env file")
	}

	apiBase := strings.TrimRight(env.String("LOADGEN_API_BASE", env.DefaultAPIBase), "/")
	cfg := loadgen.Config{
		EventID:                 env.String("LOADGEN_EVENT_ID", events.MockEventID),
		Users:                   env.Int("LOADGEN_USERS", 50),
		Duration:                env.Duration("LOADGEN_DURATION", time.Minute),
		RampUp:                  env.Duration("LOADGEN_RAMP_UP", 5*time.Second),
		ActionsPerUserPerSecond: env.Float("LOADGEN_ACTIONS_PER_USER_PER_SECOND", 2),
		InvalidRatio:            env.Float("LOADGEN_INVALID_RATIO", 0.1),
	}
	if cfg.Users <= 0 {
		log.Fatal().Msg("LOADGEN_USERS must be > 0")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := rsvpclient.NewClient(apiBase, env.Duration("LOADGEN_REQUEST_TIMEOUT", rsvpclient.DefaultTimeout))
	client.HTTP.Transport = &http.Transport{
		MaxIdleConns:        cfg.Users * 4,
		MaxIdleConnsPerHost: cfg.Users * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	runner := loadgen.NewRunner(cfg, client, log)
	metrics.RegisterGaugeFunc("rsvp_loadgen_virtual_users", "Active virtual users.", func() float64 {
		return float64(runner.ActiveUsers())
	})

	go runMetricsServer(env.String("LOADGEN_METRICS_ADDR", ":9099"), log)
	go logProgress(ctx, runner, log)

	log.Info().
		Str("api", apiBase).
		Int("users", cfg.Users).
		Dur("duration", cfg.Duration).
		Float64("rate_per_user", cfg.ActionsPerUserPerSecond).
		Msg("load generator starting")

	report := runner.Run(ctx)
	log.Info().
		Int64("accepted", report.Accepted).
		Int64("rejected", report.Rejected).
		Int64("errors", report.Errors).
		Int("duplicates", len(report.Duplicates)).
		Msg("load test complete")
	if err := report.Err(); err != nil {
		log.Fatal().Err(err).Msg("submission ids were not unique")
	}
}

func logProgress(ctx context.Context, runner *loadgen.Runner, log zerolog.Logger) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rep := runner.Report()
			log.Info().
				Int64("accepted", rep.Accepted).
				Int64("rejected", rep.Rejected).
				Int64("errors", rep.Errors).
				Int64("active_vus", runner.ActiveUsers()).
				Msg("progress")
		}
	}
}

func runMetricsServer(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Msg("load generator metrics listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server failed")
	}
}
