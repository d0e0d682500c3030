package chatsync

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMsg(threadID uuid.UUID, offset time.Duration, body string) *types.Message {
	return &types.Message{
		ID:        uuid.New(),
		ThreadID:  threadID,
		SenderID:  uuid.New(),
		Body:      body,
		Kind:      types.MessageKindText,
		CreatedAt: testEpoch.Add(offset),
	}
}

func newAtt(msg *types.Message, name string) *types.Attachment {
	return &types.Attachment{
		ID:          uuid.New(),
		MessageID:   msg.ID,
		ThreadID:    msg.ThreadID,
		StorageKey:  "attachments/" + uuid.NewString(),
		FileName:    name,
		ContentType: "application/octet-stream",
		CreatedAt:   msg.CreatedAt,
	}
}

func mustEvent(t *testing.T, entity realtime.Entity, op realtime.Op, threadID uuid.UUID, row any) realtime.Event {
	t.Helper()
	evt, err := realtime.NewEvent(entity, op, threadID, row)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return evt
}

// fakeSource serves pages from a fixed ascending history slice.
type fakeSource struct {
	mu      sync.Mutex
	history []*types.Message
	atts    []*types.Attachment
	reacts  []*types.Reaction
	reads   []*types.ReadReceipt

	calls   int
	block   chan struct{}
	failMsg error
}

func (f *fakeSource) MessagesBefore(_ context.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.failMsg != nil {
		return nil, f.failMsg
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Message
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		m := f.history[i]
		if m.ThreadID != threadID {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	// Walked newest-first; flip to ascending.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeSource) AttachmentsFor(_ context.Context, ids []uuid.UUID) ([]*types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.Attachment
	for _, a := range f.atts {
		if want[a.MessageID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeSource) ReactionsFor(_ context.Context, ids []uuid.UUID) ([]*types.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.Reaction
	for _, r := range f.reacts {
		if want[r.MessageID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) ReceiptsFor(_ context.Context, ids []uuid.UUID) ([]*types.ReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*types.ReadReceipt
	for _, r := range f.reads {
		if want[r.MessageID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSender assigns server identity to drafts and can be told to fail
// uploads by file name.
type fakeSender struct {
	mu          sync.Mutex
	created     []*types.Message
	uploaded    []*types.Attachment
	failUploads map[string]error
	failCreate  error
	clock       time.Duration
}

func (f *fakeSender) CreateMessage(_ context.Context, draft Draft) (*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.clock += time.Second
	msg := &types.Message{
		ID:        uuid.New(),
		ThreadID:  draft.ThreadID,
		SenderID:  draft.SenderID,
		Body:      draft.Body,
		Kind:      draft.Kind,
		ParentID:  draft.ParentID,
		CreatedAt: testEpoch.Add(24*time.Hour + f.clock),
	}
	f.created = append(f.created, msg)
	return msg, nil
}

func (f *fakeSender) UploadAttachment(_ context.Context, threadID, messageID uuid.UUID, file File) (*types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUploads[file.Name]; err != nil {
		return nil, err
	}
	if file.Content != nil {
		_, _ = io.Copy(io.Discard, file.Content)
	}
	att := &types.Attachment{
		ID:          uuid.New(),
		MessageID:   messageID,
		ThreadID:    threadID,
		StorageKey:  "attachments/" + file.Name,
		FileName:    file.Name,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
	}
	f.uploaded = append(f.uploaded, att)
	return att, nil
}

// fakeSigner signs by key and can mark keys as missing or transiently
// failing.
type fakeSigner struct {
	mu      sync.Mutex
	calls   map[string]int
	missing map[string]bool
	failure error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{calls: make(map[string]int), missing: make(map[string]bool)}
}

func (f *fakeSigner) SignedURL(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.missing[key] {
		return "", ErrObjectMissing
	}
	if f.failure != nil {
		return "", f.failure
	}
	return fmt.Sprintf("https://signed.example/%s?n=%d", key, f.calls[key]), nil
}

func (f *fakeSigner) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeNotifier struct {
	mu    sync.Mutex
	seen  []uuid.UUID
	fired chan uuid.UUID
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{fired: make(chan uuid.UUID, 8)}
}

func (f *fakeNotifier) AttachmentMissing(_ context.Context, attachmentID uuid.UUID) {
	f.mu.Lock()
	f.seen = append(f.seen, attachmentID)
	f.mu.Unlock()
	f.fired <- attachmentID
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

// hubFeed adapts a realtime.Hub to the Feed port.
type hubFeed struct{ hub *realtime.Hub }

func (h hubFeed) Subscribe(threadID uuid.UUID) *realtime.Subscription {
	return h.hub.Subscribe(realtime.Channel(threadID))
}
