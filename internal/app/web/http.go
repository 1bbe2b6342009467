package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/app/events"
	"github.com/rsvp-demo/project/internal/app/rsvp"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/platform/env"
	"github.com/rsvp-demo/project/internal/platform/logging"
	"github.com/rsvp-demo/project/internal/platform/metrics"
	"github.com/rsvp-demo/project/internal/rsvpclient"
	"github.com/rsvp-demo/project/services/frontend"
)

const (
	maxBodyBytes        = 1 << 20
	DefaultFetchTimeout = 3 * time.Second

	msgInvalidBody     = "Invalid JSON body"
	msgUnknownEvent    = "Unknown eventId"
	msgNotInteger      = "childrenCount must be an integer"
	msgOutOfRange      = "childrenCount must be between 0 and 6"
	msgAckRequired     = "You must accept the acknowledgement to RSVP"
	msgEventNotFound   = "Event not found"
	msgInternalFailure = "Internal server error"
)

type EventSource interface {
	Lookup(id string) (contracts.EventData, error)
	List() []contracts.EventData
}

// EventFetcher loads an event over HTTP from the public lookup endpoint.
type EventFetcher interface {
	Event(ctx context.Context, id string) (contracts.EventData, error)
}

type Handler struct {
	Service *rsvp.Service
	Events  EventSource
	Log     zerolog.Logger
	// BaseURL is the origin the detail page fetches events from. Production
	// deployments must set it (BASE_URL); without it the origin comes from
	// client-supplied Host and X-Forwarded-* headers.
	BaseURL      string
	FetchTimeout time.Duration
	DevMode      bool
	Ready        func(ctx context.Context) error
	NewFetcher   func(baseURL string, timeout time.Duration) EventFetcher
	Now          func() time.Time
}

func NewHandler(service *rsvp.Service, catalog EventSource, log zerolog.Logger, baseURL string, devMode bool) *Handler {
	return &Handler{
		Service:      service,
		Events:       catalog,
		Log:          log,
		BaseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		FetchTimeout: DefaultFetchTimeout,
		DevMode:      devMode,
		NewFetcher: func(baseURL string, timeout time.Duration) EventFetcher {
			return rsvpclient.NewClient(baseURL, timeout)
		},
		Now: func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", frontend.StaticHandler()))

	r.Get("/", templ.Handler(frontend.LandingPage()).ServeHTTP)
	r.Get("/events", h.handleEventsPage)
	r.Get("/events/{id}", h.handleEventPage)

	r.Get("/api/events/{id}", h.handleGetEvent)
	r.Post("/api/rsvp", h.handleSubmit)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	writeText(w, http.StatusOK, "ok")
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Events.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			h.writeError(w, http.StatusNotFound, msgEventNotFound)
			return
		}
		h.writeError(w, http.StatusInternalServerError, msgInternalFailure)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeRejection(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	saved, err := h.Service.Submit(r.Context(), raw)
	if err != nil {
		status, msg := rejection(err)
		if status == http.StatusInternalServerError {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("rsvp submit failed")
		}
		h.writeRejection(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusCreated, contracts.RsvpResponse{OK: true, Saved: &saved})
}

// rejection maps a validation error to its HTTP status and client message.
func rejection(err error) (int, string) {
	switch {
	case errors.Is(err, rsvp.ErrInvalidBody):
		return http.StatusBadRequest, msgInvalidBody
	case errors.Is(err, rsvp.ErrUnknownEvent):
		return http.StatusNotFound, msgUnknownEvent
	case errors.Is(err, rsvp.ErrInvalidChildrenCount):
		return http.StatusUnprocessableEntity, msgNotInteger
	case errors.Is(err, rsvp.ErrOutOfRange):
		return http.StatusUnprocessableEntity, msgOutOfRange
	case errors.Is(err, rsvp.ErrAcknowledgementRequired):
		return http.StatusUnprocessableEntity, msgAckRequired
	default:
		return http.StatusInternalServerError, msgInternalFailure
	}
}

func (h *Handler) handleEventsPage(w http.ResponseWriter, r *http.Request) {
	templ.Handler(frontend.EventsPage(h.Events.List())).ServeHTTP(w, r)
}

func (h *Handler) handleEventPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	base := h.lookupOrigin(r)
	ctx, cancel := context.WithTimeout(r.Context(), h.fetchTimeout())
	defer cancel()

	ev, err := h.NewFetcher(base, h.fetchTimeout()).Event(ctx, id)
	if err != nil {
		if !errors.Is(err, rsvpclient.ErrEventNotFound) {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("event_id", id).Str("origin", base).Msg("event fetch failed")
		}
		templ.Handler(frontend.NotFoundPage(), templ.WithStatus(http.StatusNotFound)).ServeHTTP(w, r)
		return
	}

	view := frontend.NewEventView(ev, rsvpclient.StorageKey(ev.ID), rsvp.MinChildren, rsvp.MaxChildren, h.DevMode, h.Now())
	templ.Handler(frontend.EventPage(view)).ServeHTTP(w, r)
}

// lookupOrigin picks the origin the detail page fetches its event from:
// the configured base URL, then the forwarded or direct host, then localhost.
// The header fallbacks are client-controlled and only suit local development
// or a proxy that overwrites them; production must set BASE_URL so the server
// never fetches from a caller-chosen host.
func (h *Handler) lookupOrigin(r *http.Request) string {
	if h.BaseURL != "" {
		return h.BaseURL
	}
	proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))
	if proto == "" {
		proto = "http"
	}
	host := strings.TrimSpace(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return env.DefaultAPIBase
	}
	return proto + "://" + host
}

func (h *Handler) fetchTimeout() time.Duration {
	if h.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return h.FetchTimeout
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeRejection(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, contracts.RsvpResponse{OK: false, Error: msg})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
