package rsvpclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rsvp-demo/project/internal/contracts"
	"github.com/rsvp-demo/project/internal/platform/kv"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("quota exceeded") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("storage unavailable") }

func sub(id int64, children int) contracts.Submission {
	return contracts.Submission{ID: id, Children: children, Timestamp: "2025-11-02T14:00:00.000Z"}
}

func TestStorageKey(t *testing.T) {
	if got := StorageKey("event001"); got != "elevation:rsvps:event001" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMirrorRoundTripAfterRehydrate(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	m := NewMirror(store, "event001", false, zerolog.Nop())
	m.Hydrate(ctx)
	for i := 1; i <= 5; i++ {
		m.Append(ctx, sub(int64(i), i%7))
	}

	fresh := NewMirror(store, "event001", false, zerolog.Nop())
	items := fresh.Hydrate(ctx)
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	for i, item := range items {
		if item.ID != int64(i+1) {
			t.Fatalf("unexpected order at %d: %+v", i, items)
		}
	}

	other := NewMirror(store, "event002", false, zerolog.Nop())
	if got := other.Hydrate(ctx); len(got) != 0 {
		t.Fatalf("expected mirrors to be keyed per event, got %+v", got)
	}
}

func TestMirrorHydrateToleratesCorruptData(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"id":1}`, "", "null"} {
		store := kv.NewMemoryStore()
		_ = store.Set(ctx, StorageKey("event001"), raw)

		m := NewMirror(store, "event001", false, zerolog.Nop())
		items := m.Hydrate(ctx)
		if items == nil || len(items) != 0 {
			t.Fatalf("expected empty sequence for %q, got %+v", raw, items)
		}
		m.Append(ctx, sub(1, 2))
		if len(m.Items()) != 1 {
			t.Fatalf("expected mirror usable after corrupt data %q", raw)
		}
	}
}

func TestMirrorSwallowsStorageFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMirror(failingStore{}, "event001", true, zerolog.Nop())

	if items := m.Hydrate(ctx); len(items) != 0 {
		t.Fatalf("expected empty sequence, got %+v", items)
	}
	got := m.Append(ctx, sub(1, 3))
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected in-memory append to succeed, got %+v", got)
	}
	if err := m.Reset(ctx); err != nil {
		t.Fatalf("expected reset to ignore storage failure, got %v", err)
	}
}

func TestMirrorResetGatedByDevMode(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	m := NewMirror(store, "event001", false, zerolog.Nop())
	m.Append(ctx, sub(1, 0))
	if err := m.Reset(ctx); !errors.Is(err, ErrResetDisabled) {
		t.Fatalf("expected ErrResetDisabled, got %v", err)
	}
	if len(m.Items()) != 1 {
		t.Fatal("expected disabled reset to keep items")
	}

	dev := NewMirror(store, "event001", true, zerolog.Nop())
	dev.Hydrate(ctx)
	if err := dev.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	raw, ok, _ := store.Get(ctx, StorageKey("event001"))
	if !ok || raw != "[]" {
		t.Fatalf("expected persisted empty sequence, got %q (ok=%v)", raw, ok)
	}
}

func TestMirrorItemsIsCopy(t *testing.T) {
	m := NewMirror(kv.NewMemoryStore(), "event001", false, zerolog.Nop())
	m.Append(context.Background(), sub(1, 1))
	items := m.Items()
	items[0].Children = 6
	if m.Items()[0].Children != 1 {
		t.Fatal("expected Items to return a copy")
	}
}

func TestMirrorRecoversFromCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := NewMirror(kv.NewFileStore(path), "event001", false, zerolog.Nop())
	if items := m.Hydrate(ctx); len(items) != 0 {
		t.Fatalf("expected empty sequence from corrupt file, got %+v", items)
	}
	m.Append(ctx, sub(1, 2))
	m.Append(ctx, sub(2, 5))

	reloaded := NewMirror(kv.NewFileStore(path), "event001", false, zerolog.Nop())
	items := reloaded.Hydrate(ctx)
	if len(items) != 2 || items[0].ID != 1 || items[1].Children != 5 {
		t.Fatalf("expected both appends persisted, got %+v", items)
	}
}
