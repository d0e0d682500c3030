package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/data/repos"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

// CleanupService removes attachment rows whose backing object was
// confirmed absent from storage. Everything here is best effort: a
// dangling row renders as missing until the next report and costs
// nothing else.
type CleanupService interface {
	AttachmentMissing(ctx context.Context, attachmentID uuid.UUID)
}

type cleanupService struct {
	db  *gorm.DB
	log *logger.Logger

	attachments repos.AttachmentRepo
	notify      ChatNotifier
}

func NewCleanupService(db *gorm.DB, baseLog *logger.Logger, attachmentRepo repos.AttachmentRepo, notify ChatNotifier) CleanupService {
	return &cleanupService{
		db:          db,
		log:         baseLog.With("service", "CleanupService"),
		attachments: attachmentRepo,
		notify:      notify,
	}
}

func (s *cleanupService) AttachmentMissing(ctx context.Context, attachmentID uuid.UUID) {
	if attachmentID == uuid.Nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}

	att, err := s.attachments.GetByID(dbc, attachmentID)
	if err != nil {
		s.log.Warn("dangling attachment lookup failed", "error", err, "attachment_id", attachmentID)
		return
	}
	if att == nil {
		return
	}
	if err := s.attachments.Delete(dbc, attachmentID); err != nil {
		s.log.Warn("dangling attachment delete failed", "error", err, "attachment_id", attachmentID)
		return
	}

	s.log.Info("dangling attachment removed", "attachment_id", attachmentID, "thread_id", att.ThreadID)
	if s.notify != nil {
		s.notify.AttachmentDeleted(ctx, att)
	}
}
