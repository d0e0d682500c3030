package chatsync

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

func TestStoreInsertOrderingAndDedup(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	m1 := newMsg(threadID, 0, "first")
	m2 := newMsg(threadID, time.Minute, "second")
	m3 := newMsg(threadID, 2*time.Minute, "third")

	// Out of order, with a duplicate delivery of m2.
	for _, m := range []*types.Message{m2, m1, m3, m2} {
		if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityMessage, realtime.OpInsert, threadID, m)); err != nil {
			t.Fatalf("ApplyEvent: %v", err)
		}
	}

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Message.Body != want {
			t.Errorf("entries[%d].Body = %q, want %q", i, entries[i].Message.Body, want)
		}
	}

	preview, stale := s.Preview()
	if stale || preview == nil || preview.ID != m3.ID {
		t.Fatalf("preview = %v stale=%v, want m3 fresh", preview, stale)
	}
}

func TestStoreIgnoresOtherThreads(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	other := newMsg(uuid.New(), 0, "elsewhere")
	evt := mustEvent(t, realtime.EntityMessage, realtime.OpInsert, other.ThreadID, other)
	if _, err := s.ApplyEvent(evt); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("got %d entries, want 0", s.Len())
	}
}

func TestStorePendingReplacedByAuthoritativeInsert(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	local := newMsg(threadID, 0, "hello")
	s.AppendPending(local)

	entries := s.Entries()
	if len(entries) != 1 || !entries[0].Pending {
		t.Fatalf("pending entry not recorded: %+v", entries)
	}

	// Authoritative copy carries the server timestamp.
	confirmed := *local
	confirmed.CreatedAt = local.CreatedAt.Add(120 * time.Millisecond)
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityMessage, realtime.OpInsert, threadID, &confirmed)); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	entries = s.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries after confirm, want 1", len(entries))
	}
	if entries[0].Pending {
		t.Error("entry still pending after authoritative insert")
	}
	if !entries[0].Message.CreatedAt.Equal(confirmed.CreatedAt) {
		t.Error("authoritative row did not replace the pending one")
	}
}

func TestStoreDeleteCascadesAndInvalidatesPreview(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	m1 := newMsg(threadID, 0, "keep")
	m2 := newMsg(threadID, time.Minute, "doomed")
	s.PrependPage([]*types.Message{m1, m2}, nil, nil, nil)

	att := newAtt(m2, "photo.png")
	react := &types.Reaction{ID: uuid.New(), MessageID: m2.ID, UserID: uuid.New(), Emoji: "👍"}
	read := &types.ReadReceipt{ID: uuid.New(), MessageID: m2.ID, UserID: uuid.New(), ReadAt: m2.CreatedAt}
	s.PrependPage(nil, []*types.Attachment{att}, []*types.Reaction{react}, []*types.ReadReceipt{read})

	eff, err := s.ApplyEvent(mustEvent(t, realtime.EntityMessage, realtime.OpDelete, threadID, m2))
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("got %d entries, want 1", s.Len())
	}
	if got := s.AttachmentsFor(m2.ID); len(got) != 0 {
		t.Errorf("attachments not cascaded: %v", got)
	}
	if got := s.ReactionsFor(m2.ID); len(got) != 0 {
		t.Errorf("reactions not cascaded: %v", got)
	}
	if got := s.ReceiptsFor(m2.ID); len(got) != 0 {
		t.Errorf("receipts not cascaded: %v", got)
	}
	if len(eff.RemovedAttachmentIDs) != 1 || eff.RemovedAttachmentIDs[0] != att.ID {
		t.Errorf("RemovedAttachmentIDs = %v, want [%s]", eff.RemovedAttachmentIDs, att.ID)
	}
	if !eff.PreviewInvalidated {
		t.Error("deleting the newest message must invalidate the preview")
	}
	if _, stale := s.Preview(); !stale {
		t.Error("preview not marked stale")
	}

	// Duplicate delete is a no-op.
	eff, err = s.ApplyEvent(mustEvent(t, realtime.EntityMessage, realtime.OpDelete, threadID, m2))
	if err != nil {
		t.Fatalf("ApplyEvent (dup): %v", err)
	}
	if len(eff.RemovedAttachmentIDs) != 0 || eff.PreviewInvalidated {
		t.Errorf("duplicate delete produced effects: %+v", eff)
	}
}

func TestStoreReactionToggleRoundTrip(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)
	m := newMsg(threadID, 0, "react to me")
	s.PrependPage([]*types.Message{m}, nil, nil, nil)

	r := &types.Reaction{ID: uuid.New(), MessageID: m.ID, UserID: uuid.New(), Emoji: "🔥"}

	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpInsert, threadID, r)); err != nil {
		t.Fatalf("insert reaction: %v", err)
	}
	if got := s.ReactionsFor(m.ID); len(got) != 1 {
		t.Fatalf("got %d reactions, want 1", len(got))
	}

	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpDelete, threadID, r)); err != nil {
		t.Fatalf("delete reaction: %v", err)
	}
	if got := s.ReactionsFor(m.ID); len(got) != 0 {
		t.Fatalf("got %d reactions after toggle off, want 0", len(got))
	}
}

func TestStoreReactionRemovalMatchesByUniqueKey(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)
	m := newMsg(threadID, 0, "react to me")
	s.PrependPage([]*types.Message{m}, nil, nil, nil)

	userID := uuid.New()
	r := &types.Reaction{ID: uuid.New(), MessageID: m.ID, UserID: userID, Emoji: "🔥"}
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpInsert, threadID, r)); err != nil {
		t.Fatalf("insert reaction: %v", err)
	}

	// A removal event without the stored row ID still lands: the
	// (message, user, emoji) key identifies the reaction uniquely.
	removal := &types.Reaction{MessageID: m.ID, UserID: userID, Emoji: "🔥"}
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpDelete, threadID, removal)); err != nil {
		t.Fatalf("delete reaction: %v", err)
	}
	if got := s.ReactionsFor(m.ID); len(got) != 0 {
		t.Fatalf("got %d reactions after removal event, want 0", len(got))
	}

	// Another user's identical emoji is untouched by the removal.
	other := &types.Reaction{ID: uuid.New(), MessageID: m.ID, UserID: uuid.New(), Emoji: "🔥"}
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpInsert, threadID, other)); err != nil {
		t.Fatalf("insert other reaction: %v", err)
	}
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityReaction, realtime.OpDelete, threadID, removal)); err != nil {
		t.Fatalf("replay removal: %v", err)
	}
	if got := s.ReactionsFor(m.ID); len(got) != 1 || got[0].UserID != other.UserID {
		t.Fatalf("other user's reaction affected by removal: %v", got)
	}
}

func TestStorePendingConfirmReordersOnTimestampChange(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	m1 := newMsg(threadID, time.Minute, "existing")
	s.PrependPage([]*types.Message{m1}, nil, nil, nil)

	local := newMsg(threadID, 2*time.Minute, "mine")
	s.AppendPending(local)

	// Server assigned a timestamp before m1; the confirmed row must
	// move to the head of the window, not sit at its optimistic slot.
	confirmed := *local
	confirmed.CreatedAt = m1.CreatedAt.Add(-30 * time.Second)
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityMessage, realtime.OpInsert, threadID, &confirmed)); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message.ID != local.ID || entries[1].Message.ID != m1.ID {
		t.Fatalf("window order = [%q, %q], want confirmed row first",
			entries[0].Message.Body, entries[1].Message.Body)
	}
	if entries[0].Pending {
		t.Error("confirmed entry still pending")
	}
	preview, stale := s.Preview()
	if stale || preview == nil || preview.ID != m1.ID {
		t.Fatalf("preview = %v stale=%v, want m1 fresh", preview, stale)
	}
}

func TestStoreChildEventsForUnloadedMessageIgnored(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	ghost := newMsg(threadID, 0, "never loaded")
	att := newAtt(ghost, "orphan.bin")
	if _, err := s.ApplyEvent(mustEvent(t, realtime.EntityAttachment, realtime.OpInsert, threadID, att)); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if got := s.AttachmentsFor(ghost.ID); len(got) != 0 {
		t.Fatalf("attachment indexed for unloaded message: %v", got)
	}
}

func TestStorePrependPageDedup(t *testing.T) {
	threadID := uuid.New()
	s := NewStore(threadID)

	m1 := newMsg(threadID, 0, "one")
	m2 := newMsg(threadID, time.Minute, "two")
	s.PrependPage([]*types.Message{m1, m2}, nil, nil, nil)
	// Overlapping refetch of the same page.
	s.PrependPage([]*types.Message{m1, m2}, nil, nil, nil)

	if s.Len() != 2 {
		t.Fatalf("got %d entries, want 2", s.Len())
	}
	if cur := s.OldestCreatedAt(); cur == nil || !cur.Equal(m1.CreatedAt) {
		t.Fatalf("OldestCreatedAt = %v, want %v", cur, m1.CreatedAt)
	}
}
