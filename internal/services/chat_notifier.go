package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
	"github.com/strideworks/coachbridge-backend/internal/realtime/bus"
)

// ChatNotifier publishes committed chat changes onto the cross-instance
// bus. Publishing is best effort: a lost event degrades liveness for
// connected viewers, never correctness of stored data. Delete payloads
// carry the row as of deletion so subscribers can cascade by identity.
type ChatNotifier interface {
	MessageCreated(ctx context.Context, msg *types.Message)
	MessageDeleted(ctx context.Context, msg *types.Message)
	AttachmentCreated(ctx context.Context, att *types.Attachment)
	AttachmentDeleted(ctx context.Context, att *types.Attachment)
	ReactionAdded(ctx context.Context, threadID uuid.UUID, r *types.Reaction)
	ReactionRemoved(ctx context.Context, threadID uuid.UUID, r *types.Reaction)
	ReceiptUpserted(ctx context.Context, threadID uuid.UUID, r *types.ReadReceipt)
}

type chatNotifier struct {
	log *logger.Logger
	bus bus.Bus
}

func NewChatNotifier(baseLog *logger.Logger, b bus.Bus) ChatNotifier {
	return &chatNotifier{
		log: baseLog.With("service", "ChatNotifier"),
		bus: b,
	}
}

func (n *chatNotifier) publish(ctx context.Context, entity realtime.Entity, op realtime.Op, threadID uuid.UUID, row any) {
	if n == nil || n.bus == nil {
		return
	}
	evt, err := realtime.NewEvent(entity, op, threadID, row)
	if err != nil {
		n.log.Warn("encode chat event failed", "error", err, "entity", entity, "op", op)
		return
	}
	if err := n.bus.Publish(ctx, evt); err != nil {
		n.log.Warn("publish chat event failed", "error", err, "entity", entity, "op", op, "thread_id", threadID)
	}
}

func (n *chatNotifier) MessageCreated(ctx context.Context, msg *types.Message) {
	if msg == nil {
		return
	}
	n.publish(ctx, realtime.EntityMessage, realtime.OpInsert, msg.ThreadID, msg)
}

func (n *chatNotifier) MessageDeleted(ctx context.Context, msg *types.Message) {
	if msg == nil {
		return
	}
	n.publish(ctx, realtime.EntityMessage, realtime.OpDelete, msg.ThreadID, msg)
}

func (n *chatNotifier) AttachmentCreated(ctx context.Context, att *types.Attachment) {
	if att == nil {
		return
	}
	n.publish(ctx, realtime.EntityAttachment, realtime.OpInsert, att.ThreadID, att)
}

func (n *chatNotifier) AttachmentDeleted(ctx context.Context, att *types.Attachment) {
	if att == nil {
		return
	}
	n.publish(ctx, realtime.EntityAttachment, realtime.OpDelete, att.ThreadID, att)
}

func (n *chatNotifier) ReactionAdded(ctx context.Context, threadID uuid.UUID, r *types.Reaction) {
	if r == nil {
		return
	}
	n.publish(ctx, realtime.EntityReaction, realtime.OpInsert, threadID, r)
}

func (n *chatNotifier) ReactionRemoved(ctx context.Context, threadID uuid.UUID, r *types.Reaction) {
	if r == nil {
		return
	}
	n.publish(ctx, realtime.EntityReaction, realtime.OpDelete, threadID, r)
}

func (n *chatNotifier) ReceiptUpserted(ctx context.Context, threadID uuid.UUID, r *types.ReadReceipt) {
	if r == nil {
		return
	}
	n.publish(ctx, realtime.EntityReceipt, realtime.OpInsert, threadID, r)
}
