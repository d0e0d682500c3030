package chatsync

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// ErrObjectMissing reports that an attachment's backing file is
// confirmed absent from storage, as opposed to a transient failure.
// URLSigner implementations translate their storage layer's own
// not-found error into this one.
var ErrObjectMissing = errors.New("attachment object missing")

// MessageSource reads message history and per-message side data.
type MessageSource interface {
	// MessagesBefore returns up to limit messages strictly older than
	// before (the newest page when before is nil), ascending.
	MessagesBefore(ctx context.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error)
	AttachmentsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.Attachment, error)
	ReactionsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.Reaction, error)
	ReceiptsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error)
}

// File is one outgoing attachment payload.
type File struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Content     io.Reader
}

// Draft is an outgoing message before the backend assigns identity.
type Draft struct {
	ThreadID uuid.UUID
	SenderID uuid.UUID
	Body     string
	Kind     string
	ParentID *uuid.UUID
}

// Sender persists outgoing messages and uploads attachment bytes
// through the authenticated upload endpoint (never directly to
// storage).
type Sender interface {
	CreateMessage(ctx context.Context, draft Draft) (*types.Message, error)
	UploadAttachment(ctx context.Context, threadID, messageID uuid.UUID, file File) (*types.Attachment, error)
}

// URLSigner exchanges a stored key for a time-bounded retrieval URL.
type URLSigner interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// CleanupNotifier is the best-effort side channel told about dangling
// attachment references. Delivery failure is acceptable; the row is
// merely cosmetic until a background sweep removes it.
type CleanupNotifier interface {
	AttachmentMissing(ctx context.Context, attachmentID uuid.UUID)
}

// Feed hands out change-feed subscriptions scoped to one thread.
type Feed interface {
	Subscribe(threadID uuid.UUID) *realtime.Subscription
}
