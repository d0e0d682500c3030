package chatsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestComposer(t *testing.T, sender *fakeSender, isCoach bool) (*Composer, *Store) {
	t.Helper()
	threadID := uuid.New()
	store := NewStore(threadID)
	c := NewComposer(mustTestLogger(t), sender, store, threadID, uuid.New(), isCoach)
	return c, store
}

func TestComposerSendTextOptimistic(t *testing.T) {
	sender := &fakeSender{}
	c, store := newTestComposer(t, sender, false)

	c.SetText("hello")
	res, err := c.Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Message == nil || res.Message.Body != "hello" {
		t.Fatalf("result message = %+v", res.Message)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("window holds %d entries, want 1", len(entries))
	}
	if !entries[0].Pending {
		t.Error("optimistic entry not marked pending")
	}
	if c.Text() != "" || len(c.Files()) != 0 || c.ReplyTo() != nil {
		t.Error("draft not cleared after successful send")
	}
}

func TestComposerEmptyDraftFailsFast(t *testing.T) {
	sender := &fakeSender{}
	c, _ := newTestComposer(t, sender, false)

	c.SetText("   ")
	if _, err := c.Send(context.Background()); !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("Send = %v, want ErrEmptyDraft", err)
	}
	if len(sender.created) != 0 {
		t.Error("empty draft reached the sender")
	}
}

func TestComposerPartialUploadFailure(t *testing.T) {
	sender := &fakeSender{failUploads: map[string]error{"b.png": errors.New("boom")}}
	c, store := newTestComposer(t, sender, false)

	c.SetText("three files")
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		c.AttachFile(File{Name: name, ContentType: "image/png", Content: strings.NewReader("x")})
	}

	res, err := c.Send(context.Background())
	if err == nil {
		t.Fatal("Send succeeded despite failing upload")
	}
	if res == nil || res.Message == nil {
		t.Fatal("message row lost on partial failure")
	}
	if len(res.Attachments) != 1 || res.Attachments[0].FileName != "a.png" {
		t.Fatalf("attachments = %+v, want just a.png", res.Attachments)
	}

	// The message stays visible with whatever uploaded.
	if store.Len() != 1 {
		t.Fatalf("window holds %d entries, want 1", store.Len())
	}
	if got := store.AttachmentsFor(res.Message.ID); len(got) != 1 {
		t.Fatalf("window indexed %d attachments, want 1", len(got))
	}

	// Text survives; only the uploaded file is dropped from the draft.
	if c.Text() != "three files" {
		t.Errorf("text = %q, want preserved", c.Text())
	}
	files := c.Files()
	if len(files) != 2 || files[0].Name != "b.png" || files[1].Name != "c.png" {
		t.Fatalf("remaining files = %+v, want [b.png c.png]", files)
	}
}

func TestComposerCreateFailureLeavesDraftIntact(t *testing.T) {
	sender := &fakeSender{failCreate: errors.New("db down")}
	c, store := newTestComposer(t, sender, false)

	c.SetText("try again later")
	c.AttachFile(File{Name: "a.png"})
	if _, err := c.Send(context.Background()); err == nil {
		t.Fatal("Send succeeded despite create failure")
	}
	if store.Len() != 0 {
		t.Error("failed create left an entry in the window")
	}
	if c.Text() != "try again later" || len(c.Files()) != 1 {
		t.Error("draft mutated by failed create")
	}
}

func TestComposerAnnouncementCoachOnly(t *testing.T) {
	t.Run("client flag ignored", func(t *testing.T) {
		sender := &fakeSender{}
		c, _ := newTestComposer(t, sender, false)
		c.SetAnnouncement(true)
		if c.Announcement() {
			t.Fatal("announcement flag stuck for non-coach")
		}
	})

	t.Run("coach sends announcement kind", func(t *testing.T) {
		sender := &fakeSender{}
		c, _ := newTestComposer(t, sender, true)
		c.SetText("session moved to 3pm")
		c.SetAnnouncement(true)
		res, err := c.Send(context.Background())
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if res.Message.Kind != "announcement" {
			t.Fatalf("kind = %q, want announcement", res.Message.Kind)
		}
		if c.Announcement() {
			t.Error("announcement flag not cleared after send")
		}
	})
}
