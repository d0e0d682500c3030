package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/chatsync"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// The adapters below plug the service layer into the chatsync ports so
// a Session never sees gorm, the bucket, or the hub directly. The
// caller identity rides in on the context via requestdata.

// threadSource scopes side-data reads to one thread, which the
// membership checks in ChatService require.
type threadSource struct {
	chat     ChatService
	threadID uuid.UUID
}

func NewThreadSource(chat ChatService, threadID uuid.UUID) chatsync.MessageSource {
	return &threadSource{chat: chat, threadID: threadID}
}

func (a *threadSource) MessagesBefore(ctx context.Context, threadID uuid.UUID, before *time.Time, limit int) ([]*types.Message, error) {
	return a.chat.ListMessages(dbctx.Context{Ctx: ctx}, threadID, before, limit)
}

func (a *threadSource) AttachmentsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.Attachment, error) {
	return a.chat.ListAttachments(dbctx.Context{Ctx: ctx}, a.threadID, messageIDs)
}

func (a *threadSource) ReactionsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.Reaction, error) {
	return a.chat.ListReactions(dbctx.Context{Ctx: ctx}, a.threadID, messageIDs)
}

func (a *threadSource) ReceiptsFor(ctx context.Context, messageIDs []uuid.UUID) ([]*types.ReadReceipt, error) {
	return a.chat.ListReceipts(dbctx.Context{Ctx: ctx}, a.threadID, messageIDs)
}

type syncSender struct {
	chat    ChatService
	uploads UploadService
}

func NewSyncSender(chat ChatService, uploads UploadService) chatsync.Sender {
	return &syncSender{chat: chat, uploads: uploads}
}

func (a *syncSender) CreateMessage(ctx context.Context, draft chatsync.Draft) (*types.Message, error) {
	return a.chat.SendMessage(dbctx.Context{Ctx: ctx}, draft.ThreadID, draft.Body, draft.Kind, draft.ParentID)
}

func (a *syncSender) UploadAttachment(ctx context.Context, threadID, messageID uuid.UUID, file chatsync.File) (*types.Attachment, error) {
	return a.uploads.UploadAttachment(dbctx.Context{Ctx: ctx}, threadID, messageID, file.Name, file.ContentType, file.SizeBytes, file.Content)
}

type syncSigner struct {
	bucket gcp.BucketService
}

func NewSyncSigner(bucket gcp.BucketService) chatsync.URLSigner {
	return &syncSigner{bucket: bucket}
}

func (a *syncSigner) SignedURL(ctx context.Context, key string) (string, error) {
	url, err := a.bucket.SignedURL(ctx, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectMissing) {
			return "", chatsync.ErrObjectMissing
		}
		return "", err
	}
	return url, nil
}

type syncCleanup struct {
	cleanup CleanupService
}

func NewSyncCleanup(cleanup CleanupService) chatsync.CleanupNotifier {
	return &syncCleanup{cleanup: cleanup}
}

func (a *syncCleanup) AttachmentMissing(ctx context.Context, attachmentID uuid.UUID) {
	a.cleanup.AttachmentMissing(ctx, attachmentID)
}

type hubFeed struct {
	hub *realtime.Hub
}

func NewHubFeed(hub *realtime.Hub) chatsync.Feed {
	return &hubFeed{hub: hub}
}

func (a *hubFeed) Subscribe(threadID uuid.UUID) *realtime.Subscription {
	return a.hub.Subscribe(realtime.Channel(threadID))
}
