package rsvpclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/platform/kv"
)

// StorageKeyBase namespaces mirror keys; the event id is appended.
const StorageKeyBase = "elevation:rsvps"

var ErrResetDisabled = errors.New("reset is only available in development mode")

func StorageKey(eventID string) string {
	return StorageKeyBase + ":" + eventID
}

// Mirror is the client-side, per-event history of accepted submissions.
// Storage failures never reach the caller; the in-memory sequence stays usable.
type Mirror struct {
	Store      kv.Store
	Key        string
	AllowReset bool
	Log        zerolog.Logger

	mu    sync.Mutex
	items []contracts.Submission
}

func NewMirror(store kv.Store, eventID string, allowReset bool, log zerolog.Logger) *Mirror {
	return &Mirror{
		Store:      store,
		Key:        StorageKey(eventID),
		AllowReset: allowReset,
		Log:        log,
		items:      []contracts.Submission{},
	}
}

// Hydrate replaces the in-memory sequence with whatever was last persisted.
// Absent, unreadable or corrupt data yields an empty sequence.
func (m *Mirror) Hydrate(ctx context.Context) []contracts.Submission {
	loaded := m.load(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = loaded
	return m.snapshotLocked()
}

func (m *Mirror) load(ctx context.Context) []contracts.Submission {
	raw, ok, err := m.Store.Get(ctx, m.Key)
	if err != nil {
		m.Log.Debug().Err(err).Str("key", m.Key).Msg("mirror read failed")
		return []contracts.Submission{}
	}
	if !ok || raw == "" {
		return []contracts.Submission{}
	}
	var items []contracts.Submission
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		m.Log.Debug().Err(err).Str("key", m.Key).Msg("mirror data corrupt, starting empty")
		return []contracts.Submission{}
	}
	if items == nil {
		items = []contracts.Submission{}
	}
	return items
}

// Append adds s to the end of the sequence and persists the whole sequence.
// Writes happen under the mirror lock so the stored order matches memory.
func (m *Mirror) Append(ctx context.Context, s contracts.Submission) []contracts.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, s)
	snapshot := m.snapshotLocked()
	m.persist(ctx, snapshot)
	return snapshot
}

// Reset clears the stored sequence. Only allowed when AllowReset is set.
func (m *Mirror) Reset(ctx context.Context) error {
	if !m.AllowReset {
		return ErrResetDisabled
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = []contracts.Submission{}
	m.persist(ctx, m.items)
	return nil
}

func (m *Mirror) Items() []contracts.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Mirror) persist(ctx context.Context, items []contracts.Submission) {
	data, err := json.Marshal(items)
	if err != nil {
		m.Log.Debug().Err(err).Msg("mirror encode failed")
		return
	}
	if err := m.Store.Set(ctx, m.Key, string(data)); err != nil {
		m.Log.Debug().Err(err).Str("key", m.Key).Msg("mirror write failed")
	}
}

func (m *Mirror) snapshotLocked() []contracts.Submission {
	out := make([]contracts.Submission, len(m.items))
	copy(out, m.items)
	return out
}
