package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/strideworks/coachbridge-backend/internal/http/handlers"
	httpMW "github.com/strideworks/coachbridge-backend/internal/http/middleware"
)

type RouterConfig struct {
	ServiceName string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler   *httpH.ChatHandler
	UploadHandler *httpH.UploadHandler
	StreamHandler *httpH.StreamHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.GET("/me", cfg.AuthHandler.GetMe)
		}

		if cfg.ChatHandler != nil {
			protected.POST("/chat/direct", cfg.ChatHandler.OpenDirectThread)
			protected.POST("/chat/groups", cfg.ChatHandler.CreateGroupThread)
			protected.GET("/chat/threads", cfg.ChatHandler.ListThreads)
			protected.GET("/chat/threads/:id", cfg.ChatHandler.GetThread)
			protected.DELETE("/chat/threads/:id", cfg.ChatHandler.DeleteThread)
			protected.GET("/chat/threads/:id/messages", cfg.ChatHandler.ListMessages)
			protected.POST("/chat/threads/:id/messages", cfg.ChatHandler.SendMessage)
			protected.DELETE("/chat/threads/:id/messages/:messageID", cfg.ChatHandler.DeleteMessage)
			protected.POST("/chat/threads/:id/messages/:messageID/reactions", cfg.ChatHandler.ToggleReaction)
			protected.POST("/chat/threads/:id/messages/:messageID/read", cfg.ChatHandler.MarkRead)
		}

		if cfg.UploadHandler != nil {
			protected.POST("/chat/threads/:id/messages/:messageID/attachments", cfg.UploadHandler.UploadAttachment)
			protected.GET("/chat/threads/:id/attachments/:attachmentID/url", cfg.UploadHandler.SignedURL)
		}

		if cfg.StreamHandler != nil {
			protected.GET("/chat/threads/:id/stream", cfg.StreamHandler.Stream)
		}
	}

	return r
}
