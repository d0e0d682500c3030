package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvEvent(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func mustNewEvent(t *testing.T, entity Entity, op Op, threadID uuid.UUID, row any) Event {
	t.Helper()
	evt, err := NewEvent(entity, op, threadID, row)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return evt
}

func TestHubDeliversInOrderToThreadSubscribers(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	threadID := uuid.New()

	sub := hub.Subscribe(Channel(threadID))
	defer sub.Close()

	first := mustNewEvent(t, EntityMessage, OpInsert, threadID, map[string]any{"seq": 1})
	second := mustNewEvent(t, EntityReaction, OpInsert, threadID, map[string]any{"seq": 2})
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvEvent(t, sub.Events, time.Second)
	gotSecond := recvEvent(t, sub.Events, time.Second)
	if gotFirst.Entity != EntityMessage {
		t.Fatalf("first event: want=%s got=%s", EntityMessage, gotFirst.Entity)
	}
	if gotSecond.Entity != EntityReaction {
		t.Fatalf("second event: want=%s got=%s", EntityReaction, gotSecond.Entity)
	}
}

func TestHubIsolatesThreads(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	threadA := uuid.New()
	threadB := uuid.New()

	subA := hub.Subscribe(Channel(threadA))
	defer subA.Close()
	subB := hub.Subscribe(Channel(threadB))
	defer subB.Close()

	hub.Broadcast(mustNewEvent(t, EntityMessage, OpInsert, threadA, map[string]any{"seq": 1}))

	got := recvEvent(t, subA.Events, time.Second)
	if got.ThreadID != threadA {
		t.Fatalf("thread id: want=%s got=%s", threadA, got.ThreadID)
	}
	select {
	case evt := <-subB.Events:
		t.Fatalf("subscriber on other thread received event: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	threadID := uuid.New()

	sub := hub.Subscribe(Channel(threadID))
	sub.Close()
	sub.Close()

	select {
	case _, ok := <-sub.Events:
		if ok {
			t.Fatalf("events channel should be closed after Close")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for events channel close")
	}

	// Broadcasting after close must not panic or block.
	hub.Broadcast(mustNewEvent(t, EntityMessage, OpInsert, threadID, map[string]any{"seq": 1}))
}

func TestHubDropsWhenSubscriberBufferFull(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	threadID := uuid.New()

	sub := hub.Subscribe(Channel(threadID))
	defer sub.Close()

	for i := 0; i < cap(sub.Events)+8; i++ {
		hub.Broadcast(mustNewEvent(t, EntityMessage, OpInsert, threadID, map[string]any{"seq": i}))
	}

	drained := 0
	for {
		select {
		case <-sub.Events:
			drained++
		default:
			if drained != cap(sub.Events) {
				t.Fatalf("drained events: want=%d got=%d", cap(sub.Events), drained)
			}
			return
		}
	}
}
