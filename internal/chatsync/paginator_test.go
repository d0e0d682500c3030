package chatsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
)

func seedHistory(threadID uuid.UUID, n int) []*types.Message {
	msgs := make([]*types.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, newMsg(threadID, time.Duration(i)*time.Minute, "m"))
	}
	return msgs
}

func TestPaginatorWalksHistoryToExhaustion(t *testing.T) {
	log := mustTestLogger(t)
	threadID := uuid.New()
	src := &fakeSource{history: seedHistory(threadID, 7)}
	store := NewStore(threadID)
	p := NewPaginator(log, src, store, 3)

	wantPages := []int{3, 3, 1}
	for i, want := range wantPages {
		n, err := p.LoadOlder(context.Background())
		if err != nil {
			t.Fatalf("LoadOlder #%d: %v", i, err)
		}
		if n != want {
			t.Fatalf("page #%d merged %d messages, want %d", i, n, want)
		}
	}
	if p.HasMore() {
		t.Error("HasMore true after short page")
	}
	if store.Len() != 7 {
		t.Fatalf("window holds %d messages, want 7", store.Len())
	}

	// Exhausted paginator never queries again.
	calls := src.callCount()
	if n, err := p.LoadOlder(context.Background()); err != nil || n != 0 {
		t.Fatalf("LoadOlder after exhaustion = (%d, %v), want (0, nil)", n, err)
	}
	if src.callCount() != calls {
		t.Error("LoadOlder queried the source after exhaustion")
	}
}

func TestPaginatorExactPageLengthLatchesImmediately(t *testing.T) {
	log := mustTestLogger(t)
	threadID := uuid.New()
	src := &fakeSource{history: seedHistory(threadID, 50)}
	store := NewStore(threadID)
	p := NewPaginator(log, src, store, 50)

	// History length equals the page size: one load drains the thread
	// and the look-ahead row already proves nothing older exists.
	n, err := p.LoadOlder(context.Background())
	if err != nil {
		t.Fatalf("LoadOlder: %v", err)
	}
	if n != 50 {
		t.Fatalf("merged %d messages, want 50", n)
	}
	if p.HasMore() {
		t.Error("HasMore true after loading a thread of exactly one page")
	}
	if store.Len() != 50 {
		t.Fatalf("window holds %d messages, want 50", store.Len())
	}
}

func TestPaginatorExactMultipleLatchesOnLastPage(t *testing.T) {
	log := mustTestLogger(t)
	threadID := uuid.New()
	src := &fakeSource{history: seedHistory(threadID, 4)}
	store := NewStore(threadID)
	p := NewPaginator(log, src, store, 2)

	if n, err := p.LoadOlder(context.Background()); err != nil || n != 2 {
		t.Fatalf("first LoadOlder = (%d, %v), want (2, nil)", n, err)
	}
	if !p.HasMore() {
		t.Fatal("HasMore false while older messages remain")
	}

	// The second page is the last one; its missing look-ahead row
	// latches HasMore without a third query.
	if n, err := p.LoadOlder(context.Background()); err != nil || n != 2 {
		t.Fatalf("second LoadOlder = (%d, %v), want (2, nil)", n, err)
	}
	if p.HasMore() {
		t.Error("HasMore true after the final page")
	}
	if src.callCount() != 2 {
		t.Fatalf("source queried %d times, want 2", src.callCount())
	}
	if store.Len() != 4 {
		t.Fatalf("window holds %d messages, want 4", store.Len())
	}
}

func TestPaginatorSingleInFlight(t *testing.T) {
	log := mustTestLogger(t)
	threadID := uuid.New()
	src := &fakeSource{history: seedHistory(threadID, 5), block: make(chan struct{})}
	store := NewStore(threadID)
	p := NewPaginator(log, src, store, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.LoadOlder(context.Background()); err != nil {
			t.Errorf("blocked LoadOlder: %v", err)
		}
	}()

	// Wait until the first call is inside the source.
	for src.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Concurrent scroll events while a fetch is in flight return
	// immediately and issue no query.
	for i := 0; i < 3; i++ {
		n, err := p.LoadOlder(context.Background())
		if err != nil || n != 0 {
			t.Fatalf("concurrent LoadOlder = (%d, %v), want (0, nil)", n, err)
		}
	}
	if src.callCount() != 1 {
		t.Fatalf("source queried %d times, want 1", src.callCount())
	}

	close(src.block)
	wg.Wait()
	if store.Len() != 2 {
		t.Fatalf("window holds %d messages, want 2", store.Len())
	}
}

func TestPaginatorStaleResultDiscarded(t *testing.T) {
	log := mustTestLogger(t)
	threadID := uuid.New()
	src := &fakeSource{history: seedHistory(threadID, 3)}
	store := NewStore(threadID)
	p := NewPaginator(log, src, store, 2)

	var closed bool
	p.stale = func() bool { return closed }

	closed = true
	n, err := p.LoadOlder(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("stale LoadOlder = (%d, %v), want (0, nil)", n, err)
	}
	if store.Len() != 0 {
		t.Fatalf("stale page merged %d messages into the window", store.Len())
	}
}
