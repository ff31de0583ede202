package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/services"
)

type StreakHandler struct {
	streakService services.StreakService
}

func NewStreakHandler(streakService services.StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

func (sh *StreakHandler) CheckIn(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	result, err := sh.streakService.CheckIn(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"checkin": result})
}

func (sh *StreakHandler) UseFreeze(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	result, err := sh.streakService.UseStreakFreeze(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"freeze": result})
}

func (sh *StreakHandler) GetStreak(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	streak, err := sh.streakService.GetUserStreak(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	needsCheckIn, err := sh.streakService.NeedsCheckIn(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"streak": streak, "needs_check_in": needsCheckIn})
}

func (sh *StreakHandler) GetHistory(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	limit := queryInt(c, "limit", 20)
	rows, err := sh.streakService.GetStreakHistory(c.Request.Context(), userID, limit)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"history": rows})
}
