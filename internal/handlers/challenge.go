package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (ch *ChallengeHandler) List(c *gin.Context) {
	onlyActive := c.Query("all") == ""
	var challengeType *domain.ChallengeType
	if raw := c.Query("type"); raw != "" {
		t := domain.ChallengeType(raw)
		if !t.Valid() {
			RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("type"))
			return
		}
		challengeType = &t
	}
	rows, err := ch.challengeService.ListTemplates(c.Request.Context(), onlyActive, challengeType)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"challenges": rows})
}

func (ch *ChallengeHandler) Create(c *gin.Context) {
	var input services.CreateChallengeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	tpl, err := ch.challengeService.CreateTemplate(c.Request.Context(), input)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"challenge": tpl})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (ch *ChallengeHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := ch.challengeService.SetTemplateActive(c.Request.Context(), id, req.Active); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"active": req.Active})
}

func (ch *ChallengeHandler) Enroll(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	enrollment, err := ch.challengeService.Enroll(c.Request.Context(), userID, id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}

type progressRequest struct {
	IncrementBy int `json:"increment_by"`
}

func (ch *ChallengeHandler) UpdateProgress(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	req := progressRequest{IncrementBy: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
	}
	result, err := ch.challengeService.UpdateProgress(c.Request.Context(), userID, id, req.IncrementBy)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": result})
}

func (ch *ChallengeHandler) ListEnrollments(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	var status *domain.EnrollmentStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.EnrollmentStatus(raw)
		status = &s
	}
	rows, err := ch.challengeService.ListUserEnrollments(c.Request.Context(), userID, status)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": rows})
}

func (ch *ChallengeHandler) Leaderboard(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 10)
	entries, err := ch.challengeService.GetChallengeLeaderboard(c.Request.Context(), id, limit)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": entries})
}

func (ch *ChallengeHandler) Stats(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	stats, err := ch.challengeService.GetChallengeStats(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
