package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/api/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/events/{id}", http.MethodGet, "418"))
	req := httptest.NewRequest(http.MethodGet, "/api/events/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/events/{id}", http.MethodGet, "418"))

	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	RsvpSubmissions.WithLabelValues("accepted").Inc()
	RegisterGaugeFunc("rsvp_test_gauge", "test gauge", func() float64 { return 3 })
	RegisterGaugeFunc("rsvp_test_gauge", "test gauge", func() float64 { return 3 })

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"rsvp_submissions_total", "rsvp_test_gauge 3"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
