package app

import (
	"github.com/stillpath/stillpath-backend/internal/middleware"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}
