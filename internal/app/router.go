package app

import (
	"github.com/gin-gonic/gin"

	httpx "github.com/strideworks/coachbridge-backend/internal/http"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return httpx.NewRouter(httpx.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AuthHandler:    handlerset.Auth,
		AuthMiddleware: mw.Auth,
		ChatHandler:    handlerset.Chat,
		UploadHandler:  handlerset.Upload,
		StreamHandler:  handlerset.Stream,
		HealthHandler:  handlerset.Health,
	})
}
