// Package presence tracks which users are currently connected to a
// thread. Membership is ephemeral: it exists only while a handle is
// open and is never persisted.
package presence

import (
	"context"

	"github.com/google/uuid"
)

// Snapshot is the full membership of one thread's presence channel.
// Deltas are never delivered; consumers replace their state wholesale.
type Snapshot struct {
	ThreadID uuid.UUID
	UserIDs  []uuid.UUID
}

// Handle is an owned membership in one thread's presence channel.
// Close announces departure and stops snapshot delivery; it is
// idempotent.
type Handle interface {
	// Count returns the number of distinct present participants as of
	// the last snapshot.
	Count() int
	// Updates delivers full-state snapshots on any join or leave. The
	// channel is closed by Close.
	Updates() <-chan Snapshot
	Close() error
}

type Tracker interface {
	// Join announces userID as present on the thread and returns a
	// handle carrying the current snapshot.
	Join(ctx context.Context, threadID, userID uuid.UUID) (Handle, error)
}
