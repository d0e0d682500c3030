package app

import (
	"github.com/strideworks/coachbridge-backend/internal/platform/envutil"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr string

	// PageSize is the message window loaded per pagination step.
	PageSize int
}

func LoadConfig() Config {
	return Config{
		ServiceName: envutil.String("SERVICE_NAME", "coachbridge-backend"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		PageSize:    envutil.Int("CHAT_PAGE_SIZE", 50),
	}
}
