package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stillpath/stillpath-backend/internal/handlers"
	"github.com/stillpath/stillpath-backend/internal/middleware"
)

type RouterConfig struct {
	CORSOrigins []string

	AuthMiddleware     *middleware.AuthMiddleware
	LedgerHandler      *handlers.LedgerHandler
	StreakHandler      *handlers.StreakHandler
	ChallengeHandler   *handlers.ChallengeHandler
	RewardHandler      *handlers.RewardHandler
	ActivityHandler    *handlers.ActivityHandler
	LeaderboardHandler *handlers.LeaderboardHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.GET("/challenges", cfg.ChallengeHandler.List)
		api.GET("/challenges/:id/leaderboard", cfg.ChallengeHandler.Leaderboard)
		api.GET("/rewards", cfg.RewardHandler.List)
		api.GET("/rewards/featured", cfg.RewardHandler.Featured)
		api.GET("/rewards/popular", cfg.RewardHandler.Popular)
		api.GET("/rewards/search", cfg.RewardHandler.Search)
		api.GET("/leaderboard", cfg.LeaderboardHandler.Overview)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Points
	protected.GET("/points/summary", cfg.LedgerHandler.GetSummary)
	protected.GET("/points/history", cfg.LedgerHandler.GetHistory)
	protected.GET("/points/rank", cfg.LedgerHandler.GetRank)
	// Streaks
	protected.POST("/streaks/checkin", cfg.StreakHandler.CheckIn)
	protected.POST("/streaks/freeze", cfg.StreakHandler.UseFreeze)
	protected.GET("/streaks", cfg.StreakHandler.GetStreak)
	protected.GET("/streaks/history", cfg.StreakHandler.GetHistory)
	// Challenges
	protected.POST("/challenges/:id/enroll", cfg.ChallengeHandler.Enroll)
	protected.POST("/challenges/:id/progress", cfg.ChallengeHandler.UpdateProgress)
	protected.GET("/challenges/enrollments", cfg.ChallengeHandler.ListEnrollments)
	// Rewards
	protected.GET("/rewards/affordable", cfg.RewardHandler.Affordable)
	protected.POST("/rewards/:id/redeem", cfg.RewardHandler.Redeem)
	protected.GET("/redemptions", cfg.RewardHandler.ListRedemptions)
	protected.POST("/redemptions/:id/cancel", cfg.RewardHandler.Cancel)
	// Activity intake
	protected.POST("/activities", cfg.ActivityHandler.Record)
	// Leaderboard
	protected.GET("/leaderboard/me", cfg.LeaderboardHandler.MyStanding)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/challenges", cfg.ChallengeHandler.Create)
	admin.PATCH("/challenges/:id/active", cfg.ChallengeHandler.SetActive)
	admin.GET("/challenges/:id/stats", cfg.ChallengeHandler.Stats)
	admin.POST("/rewards", cfg.RewardHandler.Create)
	admin.PATCH("/rewards/:id/active", cfg.RewardHandler.SetActive)
	admin.GET("/rewards/:id/stats", cfg.RewardHandler.RedemptionStats)
	admin.PATCH("/redemptions/:id/status", cfg.RewardHandler.UpdateStatus)
	admin.POST("/points/adjust", cfg.LedgerHandler.Adjust)

	return router
}
