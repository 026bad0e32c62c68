package app

import (
	httpMW "github.com/yungbote/memberhub-backend/internal/http/middleware"
	"github.com/yungbote/memberhub-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.JWTSecret == "" {
		log.Warn("PLATFORM_JWT_SECRET not set; every authenticated route will answer 401")
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, httpMW.AuthConfig{
			Secret:   cfg.JWTSecret,
			Audience: cfg.JWTAudience,
			Issuer:   cfg.JWTIssuer,
			Leeway:   cfg.JWTLeeway,
		}),
	}
}
