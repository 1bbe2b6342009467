package frontend

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/rsvp-demo/project/internal/contracts"
)

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "3:04 PM MST"

	acknowledgementURL = "https://www.elevationchurch.org/acknowledgements-and-release"
)

// EventView is the data behind the event detail page.
type EventView struct {
	Event         contracts.EventData
	DateLabel     string
	TimeLabel     string
	FullAddress   string
	DirectionsURL string
	StorageKey    string
	MinChildren   int
	MaxChildren   int
	DevMode       bool
}

// NewEventView formats ev for display. An event without a date shows now.
func NewEventView(ev contracts.EventData, storageKey string, minChildren, maxChildren int, devMode bool, now time.Time) EventView {
	at := now
	if ev.Date != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ev.Date); err == nil {
			at = parsed
		}
	}
	at = at.UTC()
	full := ev.Address + ", " + ev.City + ", " + ev.State + " " + ev.Zip
	return EventView{
		Event:         ev,
		DateLabel:     at.Format(dateLayout),
		TimeLabel:     at.Format(timeLayout),
		FullAddress:   full,
		DirectionsURL: "https://maps.google.com/?q=" + url.QueryEscape(full),
		StorageKey:    storageKey,
		MinChildren:   minChildren,
		MaxChildren:   maxChildren,
		DevMode:       devMode,
	}
}

// htmlWriter keeps the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (hw *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

// text writes escaped content, valid in element bodies and quoted attributes.
func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) href(u string) {
	hw.text(string(templ.URL(u)))
}

func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.text(title)
		hw.raw(`</title><link rel="stylesheet" href="/static/styles.css"></head><body>`)
		hw.render(ctx, body)
		hw.raw(`</body></html>`)
		return hw.err
	})
}

func LandingPage() templ.Component {
	return layout("Welcome", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<main class="landing"><h1>WELCOME</h1>`,
			`<a class="button" href="/events"><span>Proceed to demo</span></a></main>`)
		return hw.err
	}))
}

func EventsPage(events []contracts.EventData) templ.Component {
	return layout("Events", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<main class="page"><a class="back" href="/" aria-label="Back">&larr;</a>`,
			`<h1>Events</h1><ul class="event-list">`)
		for _, ev := range events {
			hw.raw(`<li><a href="`)
			hw.href("/events/" + url.PathEscape(ev.ID))
			hw.raw(`">`)
			hw.text(ev.Venue)
			hw.raw(`</a> <span class="muted">`)
			hw.text(ev.City + ", " + ev.State + " " + ev.Zip)
			hw.raw(`</span></li>`)
		}
		if len(events) == 0 {
			hw.raw(`<li class="muted">No upcoming events.</li>`)
		}
		hw.raw(`</ul></main>`)
		return hw.err
	}))
}

func NotFoundPage() templ.Component {
	return layout("Event not found", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<main class="page"><h1>Event not found</h1>`,
			`<p class="muted">Please check the link or contact support.</p></main>`)
		return hw.err
	}))
}

func EventPage(view EventView) templ.Component {
	return layout(view.Event.Venue, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		minText, maxText := strconv.Itoa(view.MinChildren), strconv.Itoa(view.MaxChildren)

		hw.raw(`<main class="page rsvp" id="rsvp-panel" data-event-id="`)
		hw.text(view.Event.ID)
		hw.raw(`" data-storage-key="`)
		hw.text(view.StorageKey)
		hw.raw(`" data-min-children="`, minText, `" data-max-children="`, maxText, `">`)

		hw.raw(`<section class="summary" aria-live="polite">`,
			`<a class="back" href="/events" aria-label="Back to events">&larr;</a>`,
			`<h1>Total RSVPs: <span id="rsvp-total">0</span></h1><ul id="rsvp-history"></ul>`)
		if view.DevMode {
			hw.raw(`<button type="button" id="rsvp-reset" class="link">Reset (Dev Only)</button>`)
		}
		hw.raw(`<div id="rsvp-error" class="alert" role="alert" aria-live="assertive" hidden></div></section>`)

		hw.render(ctx, eventCard(view))
		hw.raw(`</main><script src="/static/rsvp.js"></script>`)
		return hw.err
	}))
}

func eventCard(view EventView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		ev := view.Event
		minText, maxText := strconv.Itoa(view.MinChildren), strconv.Itoa(view.MaxChildren)

		hw.raw(`<aside class="card"><h2>Event Details</h2><div class="detail"><div class="label">Location</div><div>`)
		hw.text(ev.Venue)
		hw.raw(`</div><div class="muted">`)
		hw.text(ev.Address)
		hw.raw(`</div><div class="muted">`)
		hw.text(ev.City + ", " + ev.State + " " + ev.Zip)
		hw.raw(`</div><a href="`)
		hw.href(view.DirectionsURL)
		hw.raw(`" target="_blank" rel="noreferrer">Directions</a> `,
			`<button type="button" id="copy-address" class="link" data-address="`)
		hw.text(view.FullAddress)
		hw.raw(`">Copy</button></div><div class="detail">`)
		hw.text(view.DateLabel)
		hw.raw(`</div><div class="detail">`)
		hw.text(view.TimeLabel)
		hw.raw(`</div>`)

		hw.raw(`<form id="rsvp-form"><fieldset><legend>Additional Children (`, minText, ` - `, maxText, ` Yrs)</legend>`,
			`<div class="stepper">`,
			`<button type="button" id="children-dec" aria-label="Decrease number of children" disabled>&minus;</button>`,
			`<output id="children-count" role="status" aria-live="polite">`, minText, `</output>`,
			`<button type="button" id="children-inc" aria-label="Increase number of children">+</button>`,
			`</div></fieldset>`)
		hw.raw(`<label class="ack"><input id="acknowledgement" type="checkbox">`,
			`<span><span class="required">*</span>By checking this box, you agree to the terms outlined in this `,
			`<a href="`, acknowledgementURL, `" target="_blank" rel="noreferrer">Acknowledgement &amp; Release</a> form.</span></label>`)
		hw.raw(`<button type="submit" id="rsvp-submit" class="button" disabled title="Please accept policies to submit">RSVP</button>`,
			`</form></aside>`)
		return hw.err
	})
}
