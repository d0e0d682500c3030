package chatsync

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// Entry is one message in the window. Pending marks an optimistic
// append that has not yet been confirmed by the change feed; the
// authoritative insert event replaces the entry rather than merely
// deduplicating against it.
type Entry struct {
	Message *types.Message
	Pending bool
}

// Effects reports side work the caller owes after a merge: cached
// retrieval URLs to drop and whether the thread-list preview must be
// refetched.
type Effects struct {
	RemovedAttachmentIDs []uuid.UUID
	PreviewInvalidated   bool
}

// Store holds the loaded window of one thread's messages in ascending
// created-at order, with side indexes keyed by message identity. All
// merge operations are idempotent under duplicate event delivery.
type Store struct {
	threadID uuid.UUID

	mu      sync.Mutex
	entries []*Entry
	byID    map[uuid.UUID]*Entry

	attachments map[uuid.UUID][]*types.Attachment
	reactions   map[uuid.UUID][]*types.Reaction
	receipts    map[uuid.UUID][]*types.ReadReceipt

	// preview is the cached "last message" used by the thread list;
	// previewStale is set when the cached message is deleted and the
	// list must refetch.
	preview      *types.Message
	previewStale bool
}

func NewStore(threadID uuid.UUID) *Store {
	return &Store{
		threadID:    threadID,
		byID:        make(map[uuid.UUID]*Entry),
		attachments: make(map[uuid.UUID][]*types.Attachment),
		reactions:   make(map[uuid.UUID][]*types.Reaction),
		receipts:    make(map[uuid.UUID][]*types.ReadReceipt),
	}
}

func (s *Store) ThreadID() uuid.UUID { return s.threadID }

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a snapshot of the window in order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

func (s *Store) Message(id uuid.UUID) (*types.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return e.Message, true
}

func (s *Store) AttachmentsFor(messageID uuid.UUID) []*types.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.Attachment(nil), s.attachments[messageID]...)
}

func (s *Store) ReactionsFor(messageID uuid.UUID) []*types.Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.Reaction(nil), s.reactions[messageID]...)
}

func (s *Store) ReceiptsFor(messageID uuid.UUID) []*types.ReadReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.ReadReceipt(nil), s.receipts[messageID]...)
}

// OldestCreatedAt is the pagination cursor: nil when the window is
// empty.
func (s *Store) OldestCreatedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	t := s.entries[0].Message.CreatedAt
	return &t
}

// Preview returns the cached last-message preview. stale means the
// cache was invalidated by a delete and the caller must refetch.
func (s *Store) Preview() (msg *types.Message, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview, s.previewStale
}

// AppendPending applies the optimistic local append for a just-sent
// message. A no-op when the authoritative insert already arrived.
func (s *Store) AppendPending(msg *types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == nil || msg.ThreadID != s.threadID {
		return
	}
	if _, ok := s.byID[msg.ID]; ok {
		return
	}
	s.insertLocked(&Entry{Message: msg, Pending: true})
}

// AddAttachment records a locally known attachment (optimistic, after
// a successful upload). Idempotent by attachment identity.
func (s *Store) AddAttachment(att *types.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAttachmentLocked(att)
}

// PrependPage merges a page of strictly older messages plus its side
// data, deduplicating against whatever is already loaded.
func (s *Store) PrependPage(msgs []*types.Message, atts []*types.Attachment, reacts []*types.Reaction, reads []*types.ReadReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if m == nil || m.ThreadID != s.threadID {
			continue
		}
		if _, ok := s.byID[m.ID]; ok {
			continue
		}
		s.insertLocked(&Entry{Message: m})
	}
	for _, a := range atts {
		s.addAttachmentLocked(a)
	}
	for _, r := range reacts {
		s.addReactionLocked(r)
	}
	for _, r := range reads {
		s.addReceiptLocked(r)
	}
}

// ApplyEvent merges one change-feed event. Events for other threads
// and child events whose owning message is outside the loaded window
// are ignored, not buffered.
func (s *Store) ApplyEvent(evt realtime.Event) (Effects, error) {
	if evt.ThreadID != s.threadID {
		return Effects{}, nil
	}
	switch evt.Entity {
	case realtime.EntityMessage:
		var msg types.Message
		if err := evt.Decode(&msg); err != nil {
			return Effects{}, fmt.Errorf("decode message event: %w", err)
		}
		if evt.Op == realtime.OpDelete {
			return s.deleteMessage(msg.ID), nil
		}
		s.insertMessage(&msg)
		return Effects{}, nil

	case realtime.EntityAttachment:
		var att types.Attachment
		if err := evt.Decode(&att); err != nil {
			return Effects{}, fmt.Errorf("decode attachment event: %w", err)
		}
		if evt.Op == realtime.OpDelete {
			return s.deleteAttachment(&att), nil
		}
		s.mu.Lock()
		s.addAttachmentLocked(&att)
		s.mu.Unlock()
		return Effects{}, nil

	case realtime.EntityReaction:
		var r types.Reaction
		if err := evt.Decode(&r); err != nil {
			return Effects{}, fmt.Errorf("decode reaction event: %w", err)
		}
		s.mu.Lock()
		if evt.Op == realtime.OpDelete {
			s.removeReactionLocked(&r)
		} else {
			s.addReactionLocked(&r)
		}
		s.mu.Unlock()
		return Effects{}, nil

	case realtime.EntityReceipt:
		var r types.ReadReceipt
		if err := evt.Decode(&r); err != nil {
			return Effects{}, fmt.Errorf("decode receipt event: %w", err)
		}
		if evt.Op == realtime.OpDelete {
			// Receipts are never deleted except by message cascade,
			// which the message delete path already handles.
			return Effects{}, nil
		}
		s.mu.Lock()
		s.addReceiptLocked(&r)
		s.mu.Unlock()
		return Effects{}, nil

	default:
		return Effects{}, fmt.Errorf("unknown event entity %q", evt.Entity)
	}
}

func (s *Store) insertMessage(msg *types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byID[msg.ID]; ok {
		// Two-phase commit for optimistic sends: the authoritative row
		// replaces the pending entry. A duplicate confirmed insert is a
		// no-op either way.
		if existing.Message.CreatedAt.Equal(msg.CreatedAt) {
			existing.Message = msg
			existing.Pending = false
			return
		}
		// The confirmed timestamp moved; re-place the entry so the
		// window stays sorted.
		delete(s.byID, msg.ID)
		for i, cur := range s.entries {
			if cur == existing {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				break
			}
		}
		if s.preview != nil && s.preview.ID == msg.ID {
			// Fall back to the remaining newest entry; insertLocked
			// then promotes the confirmed row only if it still wins.
			s.preview = nil
			if n := len(s.entries); n > 0 {
				s.preview = s.entries[n-1].Message
			}
		}
	}
	s.insertLocked(&Entry{Message: msg})
}

func (s *Store) deleteMessage(id uuid.UUID) Effects {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return Effects{}
	}
	delete(s.byID, id)
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}

	var eff Effects
	for _, a := range s.attachments[id] {
		eff.RemovedAttachmentIDs = append(eff.RemovedAttachmentIDs, a.ID)
	}
	delete(s.attachments, id)
	delete(s.reactions, id)
	delete(s.receipts, id)

	if s.preview != nil && s.preview.ID == id {
		s.preview = nil
		s.previewStale = true
		eff.PreviewInvalidated = true
	}
	return eff
}

func (s *Store) deleteAttachment(att *types.Attachment) Effects {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.attachments[att.MessageID]
	for i, cur := range list {
		if cur.ID == att.ID {
			s.attachments[att.MessageID] = append(list[:i], list[i+1:]...)
			return Effects{RemovedAttachmentIDs: []uuid.UUID{att.ID}}
		}
	}
	return Effects{}
}

// insertLocked places an entry at its sorted position. Realtime
// inserts land at the tail and pagination at the head, so the scan is
// short in both common cases.
func (s *Store) insertLocked(e *Entry) {
	msg := e.Message
	i := len(s.entries)
	for i > 0 && newerLocked(s.entries[i-1].Message, msg) {
		i--
	}
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
	s.byID[msg.ID] = e

	if s.preview == nil || !newerLocked(s.preview, msg) {
		s.preview = msg
		s.previewStale = false
	}
}

// newerLocked orders by created-at with identity as tiebreak so the
// window order is deterministic for equal timestamps.
func newerLocked(a, b *types.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() > b.ID.String()
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *Store) addAttachmentLocked(att *types.Attachment) {
	if att == nil {
		return
	}
	if _, loaded := s.byID[att.MessageID]; !loaded {
		return
	}
	for _, cur := range s.attachments[att.MessageID] {
		if cur.ID == att.ID {
			return
		}
	}
	s.attachments[att.MessageID] = append(s.attachments[att.MessageID], att)
}

// sameReaction matches by the (message, user, emoji) unique key rather
// than row identity, so removal events land even when the publisher
// did not carry the stored ID.
func sameReaction(a, b *types.Reaction) bool {
	return a.MessageID == b.MessageID && a.UserID == b.UserID && a.Emoji == b.Emoji
}

func (s *Store) addReactionLocked(r *types.Reaction) {
	if r == nil {
		return
	}
	if _, loaded := s.byID[r.MessageID]; !loaded {
		return
	}
	for _, cur := range s.reactions[r.MessageID] {
		if sameReaction(cur, r) {
			return
		}
	}
	s.reactions[r.MessageID] = append(s.reactions[r.MessageID], r)
}

func (s *Store) removeReactionLocked(r *types.Reaction) {
	list := s.reactions[r.MessageID]
	for i, cur := range list {
		if sameReaction(cur, r) {
			s.reactions[r.MessageID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (s *Store) addReceiptLocked(r *types.ReadReceipt) {
	if r == nil {
		return
	}
	if _, loaded := s.byID[r.MessageID]; !loaded {
		return
	}
	for _, cur := range s.receipts[r.MessageID] {
		if cur.MessageID == r.MessageID && cur.UserID == r.UserID {
			return
		}
	}
	s.receipts[r.MessageID] = append(s.receipts[r.MessageID], r)
}
