package chatsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

// ErrEmptyDraft reports a send attempt with no text and no files.
var ErrEmptyDraft = errors.New("nothing to send")

// SendResult reports the outcome of one Send call. Message is set
// whenever the text row was created, even if some uploads failed
// afterwards.
type SendResult struct {
	Message     *types.Message
	Attachments []*types.Attachment
}

// Composer holds the draft state for one open thread: text, staged
// files, an optional reply target, and the announcement flag (coach
// only). Send runs the optimistic pipeline against the Store.
type Composer struct {
	log    *logger.Logger
	sender Sender
	store  *Store

	threadID uuid.UUID
	senderID uuid.UUID
	isCoach  bool

	mu           sync.Mutex
	text         string
	files        []File
	replyTo      *uuid.UUID
	announcement bool
	sending      bool
}

func NewComposer(log *logger.Logger, sender Sender, store *Store, threadID, senderID uuid.UUID, isCoach bool) *Composer {
	return &Composer{
		log:      log.With("component", "Composer", "thread_id", threadID),
		sender:   sender,
		store:    store,
		threadID: threadID,
		senderID: senderID,
		isCoach:  isCoach,
	}
}

func (c *Composer) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Composer) AttachFile(f File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, f)
}

func (c *Composer) Files() []File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]File(nil), c.files...)
}

func (c *Composer) SetReplyTo(messageID *uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replyTo = messageID
}

func (c *Composer) ReplyTo() *uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replyTo
}

// SetAnnouncement marks the draft as an announcement. Ignored for
// non-coach members.
func (c *Composer) SetAnnouncement(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.announcement = on && c.isCoach
}

func (c *Composer) Announcement() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announcement
}

// Send validates the draft, creates the message row, appends it to the
// window as pending, then uploads staged files one by one.
//
// Draft state after Send:
//   - full success clears everything;
//   - an upload failure keeps the text and reply target, drops only
//     the files already uploaded, and returns the first error while
//     the created message stays visible;
//   - a create failure leaves the draft untouched.
func (c *Composer) Send(ctx context.Context) (*SendResult, error) {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return nil, fmt.Errorf("send already in progress")
	}
	text := strings.TrimSpace(c.text)
	files := append([]File(nil), c.files...)
	replyTo := c.replyTo
	announcement := c.announcement
	if text == "" && len(files) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyDraft
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	kind := types.MessageKindText
	if announcement {
		kind = types.MessageKindAnnouncement
	}
	msg, err := c.sender.CreateMessage(ctx, Draft{
		ThreadID: c.threadID,
		SenderID: c.senderID,
		Body:     text,
		Kind:     kind,
		ParentID: replyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	c.store.AppendPending(msg)

	res := &SendResult{Message: msg}
	for i, f := range files {
		att, upErr := c.sender.UploadAttachment(ctx, c.threadID, msg.ID, f)
		if upErr != nil {
			c.log.Warn("attachment upload failed",
				"error", upErr,
				"message_id", msg.ID,
				"file", f.Name,
			)
			// Keep the files that never got a turn so the user can
			// retry just those.
			c.mu.Lock()
			c.files = append([]File(nil), files[i:]...)
			c.mu.Unlock()
			return res, fmt.Errorf("upload %q: %w", f.Name, upErr)
		}
		c.store.AddAttachment(att)
		res.Attachments = append(res.Attachments, att)
	}

	c.mu.Lock()
	c.text = ""
	c.files = nil
	c.replyTo = nil
	c.announcement = false
	c.mu.Unlock()
	return res, nil
}
