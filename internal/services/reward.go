package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/data/repos/points"
	"github.com/stillpath/stillpath-backend/internal/data/repos/rewards"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type CreateRewardInput struct {
	Title                  string                `json:"title"`
	Description            string                `json:"description"`
	Category               domain.RewardCategory `json:"category"`
	Brand                  string                `json:"brand"`
	PointCost              int                   `json:"point_cost"`
	StockQuantity          *int                  `json:"stock_quantity,omitempty"`
	RedemptionLimitPerUser *int                  `json:"redemption_limit_per_user,omitempty"`
	ExpiryDate             *time.Time            `json:"expiry_date,omitempty"`
	IsFeatured             bool                  `json:"is_featured"`
}

type RedeemInput struct {
	ShippingAddress *string `json:"shipping_address,omitempty"`
	Notes           string  `json:"notes"`
}

type UpdateRedemptionInput struct {
	Status         domain.RedemptionStatus `json:"status"`
	TrackingNumber *string                 `json:"tracking_number,omitempty"`
	Notes          *string                 `json:"notes,omitempty"`
}

// RewardService owns the catalog and the redemption lifecycle. Redeeming
// debits points, decrements bounded stock, and records a PENDING
// redemption inside one transaction; cancellation reverses all of it.
type RewardService interface {
	CreateReward(ctx context.Context, input CreateRewardInput) (*domain.RewardItem, error)
	SetRewardActive(ctx context.Context, id uuid.UUID, active bool) error

	GetRewards(ctx context.Context, category *domain.RewardCategory, featured *bool) ([]*domain.RewardItem, error)
	GetFeaturedRewards(ctx context.Context, limit int) ([]*domain.RewardItem, error)
	GetAffordableRewards(ctx context.Context, userID uuid.UUID) ([]*domain.RewardItem, error)
	GetPopularRewards(ctx context.Context, limit int) ([]*domain.RewardItem, error)
	SearchRewards(ctx context.Context, query string, category *domain.RewardCategory) ([]*domain.RewardItem, error)

	Redeem(ctx context.Context, userID, rewardID uuid.UUID, input RedeemInput) (*domain.RewardRedemption, error)
	Cancel(ctx context.Context, userID, redemptionID uuid.UUID) (*domain.RewardRedemption, error)
	UpdateStatus(ctx context.Context, redemptionID uuid.UUID, input UpdateRedemptionInput) (*domain.RewardRedemption, error)

	GetUserRedemptions(ctx context.Context, userID uuid.UUID, status *domain.RedemptionStatus) ([]*domain.RewardRedemption, error)
	GetRedemptionStats(ctx context.Context, rewardID uuid.UUID) (*rewards.RedemptionStats, error)
}

type rewardService struct {
	log         *logger.Logger
	tx          aggregates.TxRunner
	items       rewards.RewardItemRepo
	redemptions rewards.RedemptionRepo
	accounts    points.AccountRepo
	ledger      LedgerService
	notifier    ProgressionNotifier
	now         func() time.Time
}

func NewRewardService(log *logger.Logger, tx aggregates.TxRunner, items rewards.RewardItemRepo, redemptions rewards.RedemptionRepo, accounts points.AccountRepo, ledger LedgerService, notifier ProgressionNotifier) RewardService {
	return &rewardService{
		log:         log.With("service", "RewardService"),
		tx:          tx,
		items:       items,
		redemptions: redemptions,
		accounts:    accounts,
		ledger:      ledger,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *rewardService) CreateReward(ctx context.Context, input CreateRewardInput) (*domain.RewardItem, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, aggregates.ValidationError("title is required")
	}
	if !input.Category.Valid() {
		return nil, aggregates.ValidationError("invalid reward category")
	}
	if input.PointCost <= 0 {
		return nil, aggregates.ValidationError("pointCost must be positive")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, aggregates.ValidationError("stockQuantity cannot be negative")
	}
	if input.RedemptionLimitPerUser != nil && *input.RedemptionLimitPerUser <= 0 {
		return nil, aggregates.ValidationError("redemptionLimitPerUser must be positive")
	}

	row := &domain.RewardItem{
		Title:                  input.Title,
		Description:            input.Description,
		Category:               input.Category,
		Brand:                  input.Brand,
		PointCost:              input.PointCost,
		StockQuantity:          input.StockQuantity,
		RedemptionLimitPerUser: input.RedemptionLimitPerUser,
		ExpiryDate:             input.ExpiryDate,
		IsActive:               true,
		IsFeatured:             input.IsFeatured,
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.items.Create(dbc, []*domain.RewardItem{row}); err != nil {
		return nil, aggregates.MapError("reward.create", err)
	}
	return row, nil
}

func (s *rewardService) SetRewardActive(ctx context.Context, id uuid.UUID, active bool) error {
	dbc := dbctx.Context{Ctx: ctx}
	item, err := s.items.GetByID(dbc, id)
	if err != nil {
		return aggregates.MapError("reward.setactive", err)
	}
	if item == nil {
		return aggregates.NotFoundError("reward not found")
	}
	return aggregates.MapError("reward.setactive", s.items.SetActive(dbc, id, active))
}

func (s *rewardService) GetRewards(ctx context.Context, category *domain.RewardCategory, featured *bool) ([]*domain.RewardItem, error) {
	rows, err := s.items.List(dbctx.Context{Ctx: ctx}, category, featured)
	return rows, aggregates.MapError("reward.list", err)
}

func (s *rewardService) GetFeaturedRewards(ctx context.Context, limit int) ([]*domain.RewardItem, error) {
	rows, err := s.items.Featured(dbctx.Context{Ctx: ctx}, limit)
	return rows, aggregates.MapError("reward.featured", err)
}

// GetAffordableRewards filters the catalog to what the user's available
// balance covers right now. A user without an account affords only
// zero-cost items, which the catalog does not allow, so this reads empty.
func (s *rewardService) GetAffordableRewards(ctx context.Context, userID uuid.UUID) ([]*domain.RewardItem, error) {
	dbc := dbctx.Context{Ctx: ctx}
	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("reward.affordable", err)
	}
	available := 0
	if acct != nil {
		available = acct.AvailablePoints
	}
	rows, err := s.items.Affordable(dbc, available)
	return rows, aggregates.MapError("reward.affordable", err)
}

func (s *rewardService) GetPopularRewards(ctx context.Context, limit int) ([]*domain.RewardItem, error) {
	rows, err := s.items.Popular(dbctx.Context{Ctx: ctx}, limit)
	return rows, aggregates.MapError("reward.popular", err)
}

func (s *rewardService) SearchRewards(ctx context.Context, query string, category *domain.RewardCategory) ([]*domain.RewardItem, error) {
	rows, err := s.items.Search(dbctx.Context{Ctx: ctx}, query, category)
	return rows, aggregates.MapError("reward.search", err)
}

// Redeem validates in a fixed order so a caller hitting several problems
// at once gets a stable answer: existence, active, expiry, stock, balance,
// then the per-user limit. The debit, stock decrement, and PENDING row all
// commit or roll back together.
func (s *rewardService) Redeem(ctx context.Context, userID, rewardID uuid.UUID, input RedeemInput) (*domain.RewardRedemption, error) {
	if userID == uuid.Nil || rewardID == uuid.Nil {
		return nil, aggregates.ValidationError("userID and rewardID are required")
	}

	var redemption *domain.RewardRedemption
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		item, err := s.items.GetByID(dbc, rewardID)
		if err != nil {
			return aggregates.MapError("reward.redeem", err)
		}
		if item == nil || !item.IsActive {
			return aggregates.NotFoundError("reward not found or inactive")
		}
		if item.ExpiryDate != nil && item.ExpiryDate.Before(s.now()) {
			return aggregates.InvalidStateError("reward has expired")
		}
		stock := domain.StockOf(item.StockQuantity)
		if stock.Depleted() {
			return aggregates.InvalidStateError("reward is out of stock")
		}

		acct, err := s.accounts.GetByUserID(dbc, userID)
		if err != nil {
			return aggregates.MapError("reward.redeem", err)
		}
		if acct == nil || acct.AvailablePoints < item.PointCost {
			return aggregates.InsufficientBalanceError("available points below reward cost")
		}

		if item.RedemptionLimitPerUser != nil {
			n, err := s.redemptions.CountByUserAndReward(dbc, userID, rewardID)
			if err != nil {
				return aggregates.MapError("reward.redeem", err)
			}
			if n >= int64(*item.RedemptionLimitPerUser) {
				return aggregates.InvalidStateError("redemption limit reached for reward")
			}
		}

		if _, err := s.ledger.SpendInTx(dbc, userID, item.PointCost, domain.ReasonRewardRedemption,
			fmt.Sprintf("Redeemed reward: %s", item.Title),
			map[string]any{"reward_id": rewardID.String()}); err != nil {
			return err
		}

		if !stock.Unlimited() {
			ok, err := s.items.DecrementStock(dbc, rewardID)
			if err != nil {
				return aggregates.MapError("reward.redeem", err)
			}
			if !ok {
				// Another redeemer took the last unit after our read.
				return aggregates.InvalidStateError("reward is out of stock")
			}
		}

		redemption = &domain.RewardRedemption{
			UserID:          userID,
			RewardID:        rewardID,
			AccountID:       acct.ID,
			PointsSpent:     item.PointCost,
			Status:          domain.RedemptionPending,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
			RedeemedAt:      s.now().UTC(),
		}
		if item.Category == domain.RewardDiscountCoupon {
			code, err := couponCode(item.Brand)
			if err != nil {
				return aggregates.MapError("reward.redeem", err)
			}
			redemption.CouponCode = &code
		}
		if _, err := s.redemptions.Create(dbc, []*domain.RewardRedemption{redemption}); err != nil {
			return aggregates.MapError("reward.redeem", err)
		}
		redemption.Reward = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.RedemptionCreated(userID, redemption.ID, redemption.PointsSpent)
	return redemption, nil
}

// Cancel is user-initiated and only valid from PENDING. The refund is
// booked as a positive ledger entry, so lifetime totals stay monotonic
// while the available balance round-trips exactly.
func (s *rewardService) Cancel(ctx context.Context, userID, redemptionID uuid.UUID) (*domain.RewardRedemption, error) {
	var redemption *domain.RewardRedemption
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		row, err := s.redemptions.GetByID(dbc, redemptionID)
		if err != nil {
			return aggregates.MapError("reward.cancel", err)
		}
		if row == nil {
			return aggregates.NotFoundError("redemption not found")
		}
		if row.UserID != userID {
			return aggregates.UnauthorizedError("redemption belongs to another user")
		}

		ok, err := s.redemptions.CancelIfPending(dbc, redemptionID)
		if err != nil {
			return aggregates.MapError("reward.cancel", err)
		}
		if !ok {
			return aggregates.InvalidStateError("only pending redemptions can be cancelled")
		}

		if _, err := s.ledger.AwardInTx(dbc, userID, row.PointsSpent, domain.ReasonRedemptionCancelled,
			"Refund for cancelled redemption",
			map[string]any{"redemption_id": redemptionID.String()}); err != nil {
			return err
		}
		if err := s.items.RestoreStock(dbc, row.RewardID); err != nil {
			return aggregates.MapError("reward.cancel", err)
		}

		row.Status = domain.RedemptionCancelled
		redemption = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.RedemptionCancelled(userID, redemption.ID, redemption.PointsSpent)
	return redemption, nil
}

// redemptionPredecessors lists the statuses an admin transition may leave.
var redemptionPredecessors = map[domain.RedemptionStatus][]domain.RedemptionStatus{
	domain.RedemptionApproved:  {domain.RedemptionPending},
	domain.RedemptionDelivered: {domain.RedemptionPending, domain.RedemptionApproved},
}

// UpdateStatus is the administrative forward-only transition. CANCELLED is
// reserved for the owning user via Cancel, because it refunds.
func (s *rewardService) UpdateStatus(ctx context.Context, redemptionID uuid.UUID, input UpdateRedemptionInput) (*domain.RewardRedemption, error) {
	from, ok := redemptionPredecessors[input.Status]
	if !ok {
		return nil, aggregates.ValidationError("unsupported target status")
	}

	var redemption *domain.RewardRedemption
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		row, err := s.redemptions.GetByID(dbc, redemptionID)
		if err != nil {
			return aggregates.MapError("reward.status", err)
		}
		if row == nil {
			return aggregates.NotFoundError("redemption not found")
		}

		updates := map[string]any{
			"status":     input.Status,
			"updated_at": gorm.Expr("now()"),
		}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		moved, err := s.redemptions.TransitionStatus(dbc, redemptionID, from, updates)
		if err != nil {
			return aggregates.MapError("reward.status", err)
		}
		if !moved {
			return aggregates.InvalidStateError("redemption is not in an allowed predecessor status")
		}

		row.Status = input.Status
		if input.TrackingNumber != nil {
			row.TrackingNumber = input.TrackingNumber
		}
		if input.Notes != nil {
			row.Notes = *input.Notes
		}
		redemption = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redemption, nil
}

func (s *rewardService) GetUserRedemptions(ctx context.Context, userID uuid.UUID, status *domain.RedemptionStatus) ([]*domain.RewardRedemption, error) {
	rows, err := s.redemptions.ListByUser(dbctx.Context{Ctx: ctx}, userID, status)
	return rows, aggregates.MapError("reward.redemptions", err)
}

func (s *rewardService) GetRedemptionStats(ctx context.Context, rewardID uuid.UUID) (*rewards.RedemptionStats, error) {
	dbc := dbctx.Context{Ctx: ctx}
	item, err := s.items.GetByID(dbc, rewardID)
	if err != nil {
		return nil, aggregates.MapError("reward.stats", err)
	}
	if item == nil {
		return nil, aggregates.NotFoundError("reward not found")
	}
	stats, err := s.redemptions.StatsByReward(dbc, rewardID)
	return stats, aggregates.MapError("reward.stats", err)
}

const couponAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// couponCode builds "<brand prefix>-<8 random chars>", e.g. "CAL-7Q2M9XAB".
func couponCode(brand string) (string, error) {
	prefix := strings.ToUpper(strings.TrimSpace(brand))
	prefix = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, prefix)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "RWD"
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = couponAlphabet[int(b)%len(couponAlphabet)]
	}
	return prefix + "-" + string(buf), nil
}
