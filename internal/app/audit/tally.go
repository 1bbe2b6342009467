package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/rsvp-demo/project/internal/contracts"
)

// EventTally summarizes the accepted RSVPs seen for one event.
type EventTally struct {
	EventID     string
	RSVPs       int
	Children    int
	LastID      int64
	LastSeenSeq uint64
}

// DefaultDedupeWindow is how many recent message ids a Tally remembers.
const DefaultDedupeWindow = 100_000

// Tally is an in-memory Recorder keyed by event. Messages are deduplicated by
// message id over a window of the most recent ids, so broker redeliveries are
// counted once. A redelivery arriving after its id has left the window is
// counted again.
type Tally struct {
	mu     sync.Mutex
	window int
	seen   map[string]struct{}
	order  []string // ring of remembered ids, oldest at next once full
	next   int
	total  int
	events map[string]*EventTally
}

func NewTally() *Tally {
	return NewTallyWithWindow(DefaultDedupeWindow)
}

// NewTallyWithWindow remembers up to window message ids; a non-positive
// window uses DefaultDedupeWindow.
func NewTallyWithWindow(window int) *Tally {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Tally{
		window: window,
		seen:   map[string]struct{}{},
		events: map[string]*EventTally{},
	}
}

func (t *Tally) Record(_ context.Context, msg contracts.RsvpAccepted, streamSeq uint64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[msg.MessageID]; dup {
		return false, nil
	}
	t.remember(msg.MessageID)
	t.total++

	et, ok := t.events[msg.EventID]
	if !ok {
		et = &EventTally{EventID: msg.EventID}
		t.events[msg.EventID] = et
	}
	et.RSVPs++
	et.Children += msg.Submission.Children
	et.LastID = max(et.LastID, msg.Submission.ID)
	et.LastSeenSeq = max(et.LastSeenSeq, streamSeq)
	return true, nil
}

// remember adds id to the window, evicting the oldest id when full.
func (t *Tally) remember(id string) {
	if len(t.order) < t.window {
		t.order = append(t.order, id)
	} else {
		delete(t.seen, t.order[t.next])
		t.order[t.next] = id
		t.next = (t.next + 1) % t.window
	}
	t.seen[id] = struct{}{}
}

func (t *Tally) Event(eventID string) (EventTally, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	et, ok := t.events[eventID]
	if !ok {
		return EventTally{}, false
	}
	return *et, true
}

// Snapshot returns every event tally ordered by event id.
func (t *Tally) Snapshot() []EventTally {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]EventTally, 0, len(t.events))
	for _, et := range t.events {
		out = append(out, *et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Total is the number of messages recorded, excluding deduplicated
// redeliveries.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
