package rsvpclient

import (
	"context"
	"sync"
	"time"

	"github.com/rsvp-demo/project/internal/app/rsvp"
	"github.com/rsvp-demo/project/internal/contracts"
)

// DefaultConfirmFor is how long the panel shows "submitted" before returning to idle.
const DefaultConfirmFor = time.Second

type Status string

const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
)

type Submitter interface {
	Submit(ctx context.Context, eventID string, children int, acknowledgement bool) (contracts.Submission, error)
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// PanelState is a point-in-time copy of the panel for rendering.
type PanelState struct {
	Children     int
	Acknowledged bool
	Pending      bool
	Status       Status
	Error        string
	Submissions  []contracts.Submission
	CanSubmit    bool
}

// Panel drives the RSVP form for one event: form state, submit, mirror append
// and the timed "submitted" confirmation.
type Panel struct {
	EventID    string
	Client     Submitter
	Mirror     *Mirror
	ConfirmFor time.Duration
	AfterFunc  AfterFunc

	mu           sync.Mutex
	children     int
	acknowledged bool
	pending      bool
	status       Status
	errMsg       string
	stopTimer    func() bool
	timerGen     uint64
	closed       bool
}

func NewPanel(eventID string, client Submitter, mirror *Mirror) *Panel {
	return &Panel{
		EventID:    eventID,
		Client:     client,
		Mirror:     mirror,
		ConfirmFor: DefaultConfirmFor,
		AfterFunc:  timeAfterFunc,
		status:     StatusIdle,
	}
}

// Load hydrates the mirror from durable storage.
func (p *Panel) Load(ctx context.Context) {
	p.Mirror.Hydrate(ctx)
}

func clamp(n int) int {
	return min(rsvp.MaxChildren, max(rsvp.MinChildren, n))
}

func (p *Panel) SetChildren(n int) {
	p.mu.Lock()
	p.children = clamp(n)
	p.mu.Unlock()
}

func (p *Panel) Increase() {
	p.mu.Lock()
	p.children = clamp(p.children + 1)
	p.mu.Unlock()
}

func (p *Panel) Decrease() {
	p.mu.Lock()
	p.children = clamp(p.children - 1)
	p.mu.Unlock()
}

// SetAcknowledged toggles the acknowledgement box. Unchecking it drops any
// "submitted" confirmation.
func (p *Panel) SetAcknowledged(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acknowledged = v
	if !v {
		p.cancelTimerLocked()
		p.status = StatusIdle
	}
}

// Submit sends the current form. It returns false without a request when the
// acknowledgement is missing or a submit is already in flight.
func (p *Panel) Submit(ctx context.Context) bool {
	p.mu.Lock()
	if !p.acknowledged || p.pending || p.closed {
		p.mu.Unlock()
		return false
	}
	p.pending = true
	p.errMsg = ""
	children, ack := p.children, p.acknowledged
	p.mu.Unlock()

	saved, err := p.Client.Submit(ctx, p.EventID, children, ack)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
	if err != nil {
		p.errMsg = UserMessage(err)
		return false
	}

	p.Mirror.Append(ctx, saved)
	p.children = 0
	if p.closed {
		return true
	}
	p.status = StatusSubmitted
	p.cancelTimerLocked()
	p.timerGen++
	gen := p.timerGen
	p.stopTimer = p.AfterFunc(p.ConfirmFor, func() { p.confirmElapsed(gen) })
	return true
}

func (p *Panel) confirmElapsed(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.timerGen {
		return
	}
	p.status = StatusIdle
	p.acknowledged = false
	p.stopTimer = nil
}

// Reset clears the mirror (development only) and any error.
func (p *Panel) Reset(ctx context.Context) error {
	if err := p.Mirror.Reset(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.errMsg = ""
	p.mu.Unlock()
	return nil
}

// Close cancels a pending confirmation timer. The panel ignores it afterwards.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cancelTimerLocked()
}

func (p *Panel) cancelTimerLocked() {
	if p.stopTimer != nil {
		p.stopTimer()
		p.stopTimer = nil
	}
	p.timerGen++
}

func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PanelState{
		Children:     p.children,
		Acknowledged: p.acknowledged,
		Pending:      p.pending,
		Status:       p.status,
		Error:        p.errMsg,
		Submissions:  p.Mirror.Items(),
		CanSubmit:    p.acknowledged && !p.pending && p.status != StatusSubmitted,
	}
}
