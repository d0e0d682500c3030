// Package chatsync is the client-state synchronization engine for one
// open thread: an in-memory message window fed by pagination on the
// older edge and the realtime change feed on the newer edge, plus the
// optimistic send pipeline, attachment URL resolution, and presence.
//
// Nothing here persists. A Session is rebuilt from scratch on every
// thread switch, and all backend access goes through the narrow
// interfaces in ports.go.
package chatsync
