package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

// memoryTracker is the single-node implementation, also used by tests.
type memoryTracker struct {
	mu    sync.Mutex
	log   *logger.Logger
	rooms map[uuid.UUID]*room
}

type room struct {
	// refcount per user: one user may hold several open handles
	// (multiple tabs) and stays present until the last one closes.
	members map[uuid.UUID]int
	handles map[*memoryHandle]bool
}

func NewMemoryTracker(log *logger.Logger) Tracker {
	return &memoryTracker{
		log:   log.With("component", "PresenceTracker"),
		rooms: make(map[uuid.UUID]*room),
	}
}

func (t *memoryTracker) Join(_ context.Context, threadID, userID uuid.UUID) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rm, ok := t.rooms[threadID]
	if !ok {
		rm = &room{
			members: make(map[uuid.UUID]int),
			handles: make(map[*memoryHandle]bool),
		}
		t.rooms[threadID] = rm
	}

	h := &memoryHandle{
		tracker:  t,
		threadID: threadID,
		userID:   userID,
		updates:  make(chan Snapshot, 8),
	}
	rm.members[userID]++
	rm.handles[h] = true

	t.broadcastLocked(threadID, rm)
	return h, nil
}

// broadcastLocked pushes the current snapshot to every open handle.
// Slow consumers miss intermediate snapshots, never the final state:
// each handle's count is read from the room, not from the channel.
func (t *memoryTracker) broadcastLocked(threadID uuid.UUID, rm *room) {
	snap := Snapshot{ThreadID: threadID, UserIDs: make([]uuid.UUID, 0, len(rm.members))}
	for id := range rm.members {
		snap.UserIDs = append(snap.UserIDs, id)
	}
	for h := range rm.handles {
		select {
		case h.updates <- snap:
		default:
		}
	}
}

func (t *memoryTracker) leave(h *memoryHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rm, ok := t.rooms[h.threadID]
	if !ok {
		return
	}
	delete(rm.handles, h)
	rm.members[h.userID]--
	if rm.members[h.userID] <= 0 {
		delete(rm.members, h.userID)
	}
	if len(rm.handles) == 0 {
		delete(t.rooms, h.threadID)
		return
	}
	t.broadcastLocked(h.threadID, rm)
}

type memoryHandle struct {
	tracker  *memoryTracker
	threadID uuid.UUID
	userID   uuid.UUID
	updates  chan Snapshot

	closeOnce sync.Once
	closed    bool
}

func (h *memoryHandle) Count() int {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()
	if h.closed {
		return 0
	}
	rm, ok := h.tracker.rooms[h.threadID]
	if !ok {
		return 0
	}
	return len(rm.members)
}

func (h *memoryHandle) Updates() <-chan Snapshot { return h.updates }

func (h *memoryHandle) Close() error {
	h.closeOnce.Do(func() {
		h.tracker.leave(h)
		h.tracker.mu.Lock()
		h.closed = true
		h.tracker.mu.Unlock()
		close(h.updates)
	})
	return nil
}
