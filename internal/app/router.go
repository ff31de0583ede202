package app

import (
	"github.com/gin-gonic/gin"

	"github.com/stillpath/stillpath-backend/internal/server"
)

func wireRouter(cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		CORSOrigins:        cfg.CORSOrigins,
		AuthMiddleware:     middleware.Auth,
		LedgerHandler:      handlers.Ledger,
		StreakHandler:      handlers.Streak,
		ChallengeHandler:   handlers.Challenge,
		RewardHandler:      handlers.Reward,
		ActivityHandler:    handlers.Activity,
		LeaderboardHandler: handlers.Leaderboard,
	})
}
