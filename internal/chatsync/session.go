package chatsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/presence"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// Deps carries the collaborators a Session needs. Presence and
// Notifier may be nil; everything else is required.
type Deps struct {
	Log      *logger.Logger
	Source   MessageSource
	Sender   Sender
	Signer   URLSigner
	Notifier CleanupNotifier
	Feed     Feed
	Presence presence.Tracker

	// PageSize of 0 selects DefaultPageSize.
	PageSize int
}

// Session is the live sync state for one user viewing one thread. It
// owns a Store, a Paginator, a Composer, a Resolver, a change-feed
// subscription, and a presence membership. A Session is built fresh on
// every thread switch and torn down on Close; nothing survives it.
type Session struct {
	log *logger.Logger

	ThreadID uuid.UUID
	UserID   uuid.UUID

	Store     *Store
	Paginator *Paginator
	Composer  *Composer
	Resolver  *Resolver

	sub      *realtime.Subscription
	presence presence.Handle

	// tap re-emits every merged event for transport to the viewer.
	// Slow consumers drop events; the Store remains authoritative.
	tap chan realtime.Event

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// Open builds the session, subscribes to the thread's change feed,
// joins presence, and loads the newest page of history. The feed
// subscription is taken before the initial load so no event falls in
// the gap between them.
func Open(ctx context.Context, deps Deps, threadID, userID uuid.UUID, isCoach bool) (*Session, error) {
	if deps.Log == nil || deps.Source == nil || deps.Sender == nil || deps.Signer == nil || deps.Feed == nil {
		return nil, fmt.Errorf("incomplete session deps")
	}
	log := deps.Log.With("component", "ChatSession", "thread_id", threadID, "user_id", userID)

	store := NewStore(threadID)
	resolver := NewResolver(deps.Log, deps.Signer, deps.Notifier)

	s := &Session{
		log:      log,
		ThreadID: threadID,
		UserID:   userID,
		Store:    store,
		Resolver: resolver,
		Composer: NewComposer(deps.Log, deps.Sender, store, threadID, userID, isCoach),
		tap:      make(chan realtime.Event, 32),
		done:     make(chan struct{}),
	}

	pag := NewPaginator(deps.Log, deps.Source, store, deps.PageSize)
	pag.stale = s.isClosed
	pag.onURLs = resolver.Warm
	s.Paginator = pag

	s.sub = deps.Feed.Subscribe(threadID)

	if deps.Presence != nil {
		h, err := deps.Presence.Join(ctx, threadID, userID)
		if err != nil {
			s.sub.Close()
			return nil, fmt.Errorf("join presence: %w", err)
		}
		s.presence = h
	}

	if _, err := pag.LoadOlder(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	go s.consume()
	return s, nil
}

// consume applies feed events to the store until the subscription or
// the session closes.
func (s *Session) consume() {
	for {
		select {
		case <-s.done:
			return
		case evt, ok := <-s.sub.Events:
			if !ok {
				return
			}
			s.apply(evt)
		}
	}
}

func (s *Session) apply(evt realtime.Event) {
	if s.isClosed() {
		return
	}
	eff, err := s.Store.ApplyEvent(evt)
	if err != nil {
		s.log.Warn("event merge failed", "error", err, "entity", evt.Entity, "op", evt.Op)
		return
	}
	for _, id := range eff.RemovedAttachmentIDs {
		s.Resolver.Invalidate(id)
	}
	select {
	case s.tap <- evt:
	default:
	}
}

// Events re-delivers every event merged into the window, for transport
// to the viewer. The channel is never closed; readers select against
// Done.
func (s *Session) Events() <-chan realtime.Event { return s.tap }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// PresenceCount returns the number of distinct present participants,
// 0 once the session is closed or when presence is not wired.
func (s *Session) PresenceCount() int {
	if s.isClosed() || s.presence == nil {
		return 0
	}
	return s.presence.Count()
}

// PresenceUpdates returns the presence snapshot channel, nil when
// presence is not wired.
func (s *Session) PresenceUpdates() <-chan presence.Snapshot {
	if s.presence == nil {
		return nil
	}
	return s.presence.Updates()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the feed subscription and presence membership.
// Idempotent; in-flight page loads that finish after Close discard
// their results.
func (s *Session) Close() error {
	s.closeOnce.Do(s.teardown)
	return nil
}

func (s *Session) teardown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	close(s.done)
	s.sub.Close()
	if s.presence != nil {
		_ = s.presence.Close()
	}
	s.log.Debug("session closed")
}
