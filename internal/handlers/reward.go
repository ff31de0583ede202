package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/services"
)

type RewardHandler struct {
	rewardService services.RewardService
}

func NewRewardHandler(rewardService services.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

func queryRewardCategory(c *gin.Context) (*domain.RewardCategory, bool) {
	raw := c.Query("category")
	if raw == "" {
		return nil, true
	}
	cat := domain.RewardCategory(raw)
	if !cat.Valid() {
		RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("category"))
		return nil, false
	}
	return &cat, true
}

func (rh *RewardHandler) List(c *gin.Context) {
	category, ok := queryRewardCategory(c)
	if !ok {
		return
	}
	var featured *bool
	if raw := c.Query("featured"); raw != "" {
		f := raw == "true"
		featured = &f
	}
	rows, err := rh.rewardService.GetRewards(c.Request.Context(), category, featured)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rewards": rows})
}

func (rh *RewardHandler) Featured(c *gin.Context) {
	rows, err := rh.rewardService.GetFeaturedRewards(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rewards": rows})
}

func (rh *RewardHandler) Popular(c *gin.Context) {
	rows, err := rh.rewardService.GetPopularRewards(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rewards": rows})
}

func (rh *RewardHandler) Search(c *gin.Context) {
	category, ok := queryRewardCategory(c)
	if !ok {
		return
	}
	rows, err := rh.rewardService.SearchRewards(c.Request.Context(), c.Query("q"), category)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rewards": rows})
}

func (rh *RewardHandler) Affordable(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	rows, err := rh.rewardService.GetAffordableRewards(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rewards": rows})
}

func (rh *RewardHandler) Create(c *gin.Context) {
	var input services.CreateRewardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	item, err := rh.rewardService.CreateReward(c.Request.Context(), input)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"reward": item})
}

func (rh *RewardHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := rh.rewardService.SetRewardActive(c.Request.Context(), id, req.Active); err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"active": req.Active})
}

func (rh *RewardHandler) Redeem(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.RedeemInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
	}
	redemption, err := rh.rewardService.Redeem(c.Request.Context(), userID, id, input)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"redemption": redemption})
}

func (rh *RewardHandler) Cancel(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	redemption, err := rh.rewardService.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"redemption": redemption})
}

func (rh *RewardHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input services.UpdateRedemptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	redemption, err := rh.rewardService.UpdateStatus(c.Request.Context(), id, input)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"redemption": redemption})
}

func (rh *RewardHandler) ListRedemptions(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	var status *domain.RedemptionStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RedemptionStatus(raw)
		if !s.Valid() {
			RespondError(c, http.StatusBadRequest, "validation", errInvalidQuery("status"))
			return
		}
		status = &s
	}
	rows, err := rh.rewardService.GetUserRedemptions(c.Request.Context(), userID, status)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"redemptions": rows})
}

func (rh *RewardHandler) RedemptionStats(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	stats, err := rh.rewardService.GetRedemptionStats(c.Request.Context(), id)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
