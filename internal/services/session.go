package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/chatsync"
	types "github.com/strideworks/coachbridge-backend/internal/domain"
	"github.com/strideworks/coachbridge-backend/internal/platform/apierr"
	"github.com/strideworks/coachbridge-backend/internal/platform/dbctx"
	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/platform/requestdata"
	"github.com/strideworks/coachbridge-backend/internal/presence"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
)

// SessionService opens live sync sessions: one per (viewer, thread,
// connection). The session carries the message window, send pipeline,
// URL resolution, and presence for that viewer until it is closed.
type SessionService interface {
	Open(ctx context.Context, threadID uuid.UUID) (*chatsync.Session, error)
}

type sessionService struct {
	log *logger.Logger

	chat     ChatService
	uploads  UploadService
	cleanup  CleanupService
	bucket   gcp.BucketService
	hub      *realtime.Hub
	presence presence.Tracker

	pageSize int
}

func NewSessionService(
	baseLog *logger.Logger,
	chat ChatService,
	uploads UploadService,
	cleanup CleanupService,
	bucket gcp.BucketService,
	hub *realtime.Hub,
	tracker presence.Tracker,
	pageSize int,
) SessionService {
	return &sessionService{
		log:      baseLog,
		chat:     chat,
		uploads:  uploads,
		cleanup:  cleanup,
		bucket:   bucket,
		hub:      hub,
		presence: tracker,
		pageSize: pageSize,
	}
}

func (s *sessionService) Open(ctx context.Context, threadID uuid.UUID) (*chatsync.Session, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(401, "UNAUTHENTICATED", fmt.Errorf("not authenticated"))
	}

	// Membership is enforced here once; the session's paginator reads
	// re-check on every page through ChatService.
	thread, _, err := s.chat.GetThread(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		return nil, err
	}
	isCoach := rd.Role == types.UserRoleCoach && thread.CoachID == rd.UserID

	deps := chatsync.Deps{
		Log:      s.log,
		Source:   NewThreadSource(s.chat, threadID),
		Sender:   NewSyncSender(s.chat, s.uploads),
		Signer:   NewSyncSigner(s.bucket),
		Notifier: NewSyncCleanup(s.cleanup),
		Feed:     NewHubFeed(s.hub),
		Presence: s.presence,
		PageSize: s.pageSize,
	}
	return chatsync.Open(ctx, deps, threadID, rd.UserID, isCoach)
}
