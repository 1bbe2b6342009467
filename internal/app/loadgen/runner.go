package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/app/rsvp"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/platform/metrics"
	"github.com/rsvp-demo/project/internal/rsvpclient"
)

var ErrDuplicateID = errors.New("duplicate submission id")

type Config struct {
	EventID                 string
	Users                   int
	Duration                time.Duration
	RampUp                  time.Duration
	ActionsPerUserPerSecond float64
	// InvalidRatio is the share of requests sent with an out-of-range count.
	InvalidRatio float64
}

type Submitter interface {
	Submit(ctx context.Context, eventID string, children int, acknowledgement bool) (contracts.Submission, error)
}

// Report is the outcome of a run.
type Report struct {
	Accepted   int64
	Rejected   int64
	Errors     int64
	Duplicates []int64
}

// Runner drives concurrent virtual users against the RSVP endpoint and checks
// that every accepted submission carries a unique id.
type Runner struct {
	Config Config
	Client Submitter
	Log    zerolog.Logger

	activeVUs atomic.Int64
	accepted  atomic.Int64
	rejected  atomic.Int64
	failures  atomic.Int64

	mu         sync.Mutex
	seen       map[int64]struct{}
	duplicates []int64
}

func NewRunner(cfg Config, client Submitter, log zerolog.Logger) *Runner {
	return &Runner{Config: cfg, Client: client, Log: log, seen: map[int64]struct{}{}}
}

func (r *Runner) ActiveUsers() int64 { return r.activeVUs.Load() }

// Run blocks until ctx is done or Config.Duration elapses.
func (r *Runner) Run(ctx context.Context) Report {
	if r.Config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Config.Duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	for i := range max(r.Config.Users, 1) {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			r.runUser(ctx, idx)
		}(i)
	}
	wg.Wait()
	return r.Report()
}

func (r *Runner) Report() Report {
	r.mu.Lock()
	dups := append([]int64(nil), r.duplicates...)
	r.mu.Unlock()
	return Report{
		Accepted:   r.accepted.Load(),
		Rejected:   r.rejected.Load(),
		Errors:     r.failures.Load(),
		Duplicates: dups,
	}
}

func (r *Runner) runUser(ctx context.Context, idx int) {
	if r.Config.RampUp > 0 {
		delay := time.Duration(float64(r.Config.RampUp) / float64(max(r.Config.Users, 1)) * float64(idx))
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	r.activeVUs.Add(1)
	defer r.activeVUs.Add(-1)

	interval := time.Second
	if r.Config.ActionsPerUserPerSecond > 0 {
		interval = max(time.Duration(float64(time.Second)/r.Config.ActionsPerUserPerSecond), time.Millisecond)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx*7)))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		r.submitOnce(ctx, rng)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) submitOnce(ctx context.Context, rng *rand.Rand) {
	children := rng.Intn(rsvp.MaxChildren + 1)
	if rng.Float64() < r.Config.InvalidRatio {
		children = rsvp.MaxChildren + 1 + rng.Intn(5)
	}

	saved, err := r.Client.Submit(ctx, r.Config.EventID, children, true)
	var apiErr *rsvpclient.APIError
	switch {
	case err == nil:
		r.accepted.Add(1)
		metrics.LoadgenRequests.WithLabelValues("accepted").Inc()
		r.track(saved.ID)
	case errors.As(err, &apiErr):
		r.rejected.Add(1)
		metrics.LoadgenRequests.WithLabelValues("rejected").Inc()
	case ctx.Err() != nil:
	default:
		r.failures.Add(1)
		metrics.LoadgenRequests.WithLabelValues("error").Inc()
		r.Log.Debug().Err(err).Msg("submit failed")
	}
}

func (r *Runner) track(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[id]; dup {
		r.duplicates = append(r.duplicates, id)
		metrics.LoadgenRequests.WithLabelValues("duplicate").Inc()
		r.Log.Error().Int64("submission_id", id).Msg("duplicate submission id")
		return
	}
	r.seen[id] = struct{}{}
}

// Err reports ErrDuplicateID when any accepted id was seen twice.
func (rep Report) Err() error {
	if len(rep.Duplicates) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d duplicates, first %d", ErrDuplicateID, len(rep.Duplicates), rep.Duplicates[0])
}
