package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/services"
)

type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ledgerService services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (lh *LedgerHandler) GetSummary(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	summary, err := lh.ledgerService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

func (lh *LedgerHandler) GetHistory(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	rows, err := lh.ledgerService.GetTransactionHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"transactions": rows})
}

func (lh *LedgerHandler) GetRank(c *gin.Context) {
	userID := currentUserID(c)
	if userID == uuid.Nil {
		return
	}
	rank, err := lh.ledgerService.GetRank(c.Request.Context(), userID)
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"rank": rank})
}

type adjustRequest struct {
	UserID      uuid.UUID      `json:"user_id"`
	Points      int            `json:"points"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Adjust is the admin-only manual grant/deduction endpoint.
func (lh *LedgerHandler) Adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var (
		summary *services.AccountSummary
		err     error
	)
	if req.Points >= 0 {
		summary, err = lh.ledgerService.Award(c.Request.Context(), req.UserID, req.Points,
			domain.ReasonAdminAdjustment, req.Description, req.Metadata)
	} else {
		summary, err = lh.ledgerService.Spend(c.Request.Context(), req.UserID, -req.Points,
			domain.ReasonAdminAdjustment, req.Description, req.Metadata)
	}
	if err != nil {
		RespondMapped(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}
