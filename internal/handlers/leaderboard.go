package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

func (lh *LeaderboardHandler) Overview(c *gin.Context) {
	overview, err := lh.leaderboardService.GetOverview(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": overview})
}

func (lh *LeaderboardHandler) MyStanding(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	standing, err := lh.leaderboardService.GetMyStanding(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"standing": standing})
}
