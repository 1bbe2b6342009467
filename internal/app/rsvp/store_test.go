package rsvp

import (
	"sync"
	"testing"
	"time"
)

func TestAccept_AssignsIncreasingIDs(t *testing.T) {
	store := NewStore()
	store.Now = func() time.Time { return time.Date(2026, 2, 10, 9, 30, 0, 123_000_000, time.UTC) }

	first := store.Accept(3)
	second := store.Accept(0)
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids: %d, %d", first.ID, second.ID)
	}
	if first.Children != 3 || second.Children != 0 {
		t.Fatalf("unexpected children: %+v %+v", first, second)
	}
	if first.Timestamp != "2026-02-10T09:30:00.123Z" {
		t.Fatalf("unexpected timestamp: %q", first.Timestamp)
	}
	if store.Count() != 2 {
		t.Fatalf("expected count 2, got %d", store.Count())
	}
}

func TestAccept_StoresAreIsolated(t *testing.T) {
	a := NewStore()
	b := NewStore()
	a.Accept(1)
	a.Accept(1)
	if got := b.Accept(1).ID; got != 1 {
		t.Fatalf("expected fresh store to start at 1, got %d", got)
	}
}

func TestAccept_ConcurrentIDsAreUnique(t *testing.T) {
	store := NewStore()
	const workers = 16
	const perWorker = 250

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, store.Accept(i%7).ID)
			}
			for i := 1; i < len(ids); i++ {
				if ids[i] <= ids[i-1] {
					t.Errorf("ids not increasing within worker: %d then %d", ids[i-1], ids[i])
				}
			}
			mu.Lock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
	for id := int64(1); id <= workers*perWorker; id++ {
		if _, ok := seen[id]; !ok {
			t.Fatalf("missing id %d", id)
		}
	}
}
