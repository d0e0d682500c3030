package app

import (
	httpMW "github.com/strideworks/coachbridge-backend/internal/http/middleware"
	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}
