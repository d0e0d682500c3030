package app

import (
	"gorm.io/gorm"

	httpH "github.com/strideworks/coachbridge-backend/internal/http/handlers"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type Handlers struct {
	Auth   *httpH.AuthHandler
	Chat   *httpH.ChatHandler
	Upload *httpH.UploadHandler
	Stream *httpH.StreamHandler
	Health *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("wiring handlers")
	return Handlers{
		Auth:   httpH.NewAuthHandler(serviceset.Auth, reposet.User),
		Chat:   httpH.NewChatHandler(serviceset.Chat),
		Upload: httpH.NewUploadHandler(serviceset.Uploads),
		Stream: httpH.NewStreamHandler(log, serviceset.Sessions),
		Health: httpH.NewHealthHandler(db),
	}
}
