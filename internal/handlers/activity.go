package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/services"
)

type ActivityHandler struct {
	activityService services.ActivityService
}

func NewActivityHandler(activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type activityRequest struct {
	Type     domain.ActivityType `json:"type"`
	Metadata map[string]any      `json:"metadata,omitempty"`
}

func (ah *ActivityHandler) Record(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	result, err := ah.activityService.Record(c.Request.Context(), userID, req.Type, req.Metadata)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"activity": result})
}
