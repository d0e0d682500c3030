package app

import (
	"gorm.io/gorm"

	"github.com/strideworks/coachbridge-backend/internal/platform/gcp"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
	"github.com/strideworks/coachbridge-backend/internal/presence"
	"github.com/strideworks/coachbridge-backend/internal/realtime"
	"github.com/strideworks/coachbridge-backend/internal/realtime/bus"
	"github.com/strideworks/coachbridge-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	ChatNotifier services.ChatNotifier
	Chat         services.ChatService
	Uploads      services.UploadService
	Cleanup      services.CleanupService
	Sessions     services.SessionService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	bucket gcp.BucketService,
	hub *realtime.Hub,
	tracker presence.Tracker,
	b bus.Bus,
) (Services, error) {
	log.Info("wiring services")

	auth, err := services.NewAuthService(db, log, reposet.User, reposet.UserToken)
	if err != nil {
		return Services{}, err
	}

	notifier := services.NewChatNotifier(log, b)
	chat := services.NewChatService(
		db, log,
		reposet.User, reposet.Thread, reposet.Member,
		reposet.Message, reposet.Attachment, reposet.Reaction, reposet.Receipt,
		notifier,
	)
	uploads := services.NewUploadService(
		db, log, bucket,
		reposet.Member, reposet.Message, reposet.Attachment,
		notifier,
	)
	cleanup := services.NewCleanupService(db, log, reposet.Attachment, notifier)
	sessions := services.NewSessionService(log, chat, uploads, cleanup, bucket, hub, tracker, cfg.PageSize)

	return Services{
		Auth:         auth,
		ChatNotifier: notifier,
		Chat:         chat,
		Uploads:      uploads,
		Cleanup:      cleanup,
		Sessions:     sessions,
	}, nil
}
