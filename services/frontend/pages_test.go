package frontend

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rsvp-demo/project/internal/contracts"
)

func TestNewEventViewFormatsDate(t *testing.T) {
	ev := contracts.EventData{
		ID:      "event001",
		Venue:   "Elevation Church Ballantyne",
		Address: "11701 Elevation Pt Dr",
		City:    "Charlotte",
		State:   "NC",
		Zip:     "28277",
		Date:    "2025-11-02T14:00:00.000Z",
	}
	view := NewEventView(ev, "elevation:rsvps:event001", 0, 6, false, time.Now())

	if view.DateLabel != "Nov 2, 2025" || view.TimeLabel != "2:00 PM UTC" {
		t.Fatalf("unexpected labels %q %q", view.DateLabel, view.TimeLabel)
	}
	if view.FullAddress != "11701 Elevation Pt Dr, Charlotte, NC 28277" {
		t.Fatalf("unexpected address %q", view.FullAddress)
	}
	if !strings.HasPrefix(view.DirectionsURL, "https://maps.google.com/?q=11701+Elevation") {
		t.Fatalf("unexpected directions url %q", view.DirectionsURL)
	}
}

func TestNewEventViewWithoutDateUsesNow(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	view := NewEventView(contracts.EventData{ID: "x"}, "k", 0, 6, false, now)
	if view.DateLabel != "Mar 14, 2026" || view.TimeLabel != "9:05 AM UTC" {
		t.Fatalf("unexpected labels %q %q", view.DateLabel, view.TimeLabel)
	}
}

func TestPagesRender(t *testing.T) {
	var buf bytes.Buffer
	if err := EventsPage([]contracts.EventData{{ID: "event001", Venue: "<Venue>"}}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render events: %v", err)
	}
	if !strings.Contains(buf.String(), "&lt;Venue&gt;") {
		t.Fatal("expected venue to be escaped")
	}

	buf.Reset()
	if err := NotFoundPage().Render(context.Background(), &buf); err != nil {
		t.Fatalf("render not found: %v", err)
	}
	if !strings.Contains(buf.String(), "Please check the link or contact support.") {
		t.Fatal("missing not-found copy")
	}
}

func TestEventPageEscapesAndHidesReset(t *testing.T) {
	ev := contracts.EventData{ID: "event001", Venue: `Hall "A" <b>`, Address: "1 Main St", City: "Charlotte", State: "NC", Zip: "28277"}
	var buf bytes.Buffer
	if err := EventPage(NewEventView(ev, "key", 0, 6, false, time.Now())).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render event: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>") || !strings.Contains(out, "Hall &#34;A&#34; &lt;b&gt;") {
		t.Fatalf("expected venue to be escaped, got %s", out)
	}
	if strings.Contains(out, "Reset (Dev Only)") {
		t.Fatal("reset button rendered outside dev mode")
	}
	if !strings.Contains(out, `data-max-children="6"`) || !strings.Contains(out, "Additional Children (0 - 6 Yrs)") {
		t.Fatal("missing children bounds")
	}

	buf.Reset()
	if err := EventPage(NewEventView(ev, "key", 0, 6, true, time.Now())).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render event: %v", err)
	}
	if !strings.Contains(buf.String(), "Reset (Dev Only)") {
		t.Fatal("missing reset button in dev mode")
	}
}
