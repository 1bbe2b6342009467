package rsvpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rsvp-demo/project/internal/contracts"
)

func TestClientSubmitAccepted(t *testing.T) {
	var got contracts.RsvpRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/rsvp" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true,"saved":{"id":1,"children":3,"timestamp":"2025-11-02T14:00:00.000Z"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	saved, err := c.Submit(context.Background(), "event001", 3, true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if saved.ID != 1 || saved.Children != 3 || saved.Timestamp != "2025-11-02T14:00:00.000Z" {
		t.Fatalf("unexpected saved submission: %+v", saved)
	}
	if got.EventID != "event001" || got.ChildrenCount != 3 || !got.Acknowledgement {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestClientSubmitRejections(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "out of range", status: http.StatusUnprocessableEntity, body: `{"ok":false,"error":"childrenCount must be between 0 and 6"}`, wantMsg: "childrenCount must be between 0 and 6"},
		{name: "unknown event", status: http.StatusNotFound, body: `{"ok":false,"error":"Unknown eventId"}`, wantMsg: "Unknown eventId"},
		{name: "no error field", status: http.StatusInternalServerError, body: `{}`, wantMsg: GenericFailureMessage},
		{name: "ok false on 200", status: http.StatusOK, body: `{"ok":false}`, wantMsg: GenericFailureMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Submit(context.Background(), "event001", 8, true)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, apiErr.Status)
			}
			if UserMessage(err) != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, UserMessage(err))
			}
		})
	}
}

func TestClientSubmitNonJSONIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Submit(context.Background(), "event001", 1, true)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if UserMessage(err) != NetworkErrorMessage {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}
}

func TestClientSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Submit(context.Background(), "event001", 1, true)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
}

func TestClientSubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Submit(context.Background(), "event001", 1, true)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClientEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/events/event001":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"event001","venue":"Elevation Church Ballantyne","address":"11701 Elevation Pt Dr","city":"Charlotte","state":"NC","zip":"28277"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Event not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ev, err := c.Event(context.Background(), "event001")
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.Venue != "Elevation Church Ballantyne" || ev.Zip != "28277" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if _, err := c.Event(context.Background(), "bogus"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil error")
	}
	if UserMessage(errors.New("boom")) != GenericFailureMessage {
		t.Fatal("expected generic message for unknown error")
	}
}
