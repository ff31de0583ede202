package rewards

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type RedemptionStats struct {
	Total       int64                             `json:"total"`
	ByStatus    map[domain.RedemptionStatus]int64 `json:"by_status"`
	PointsSpent int64                             `json:"points_spent"`
}

type RedemptionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.RewardRedemption) ([]*domain.RewardRedemption, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RewardRedemption, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, status *domain.RedemptionStatus) ([]*domain.RewardRedemption, error)

	// CountByUserAndReward counts redemptions that still occupy a per-user
	// limit slot, so CANCELLED rows are excluded.
	CountByUserAndReward(dbc dbctx.Context, userID, rewardID uuid.UUID) (int64, error)

	// CancelIfPending performs the user-initiated PENDING -> CANCELLED
	// compare-and-set.
	CancelIfPending(dbc dbctx.Context, id uuid.UUID) (bool, error)

	// TransitionStatus performs the administrative one-way transition,
	// guarded by the allowed predecessor statuses.
	TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []domain.RedemptionStatus, updates map[string]any) (bool, error)

	StatsByReward(dbc dbctx.Context, rewardID uuid.UUID) (*RedemptionStats, error)
}

type redemptionRepo struct {
	db    *gorm.DB
	guard aggregates.CASGuard
	log   *logger.Logger
}

func NewRedemptionRepo(db *gorm.DB, baseLog *logger.Logger) RedemptionRepo {
	return &redemptionRepo{
		db:    db,
		guard: aggregates.NewCASGuard(db),
		log:   baseLog.With("repo", "RedemptionRepo"),
	}
}

func (r *redemptionRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *redemptionRepo) Create(dbc dbctx.Context, rows []*domain.RewardRedemption) ([]*domain.RewardRedemption, error) {
	if len(rows) == 0 {
		return []*domain.RewardRedemption{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *redemptionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RewardRedemption, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.RewardRedemption
	if err := r.base(dbc).
		Preload("Reward").
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *redemptionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, status *domain.RedemptionStatus) ([]*domain.RewardRedemption, error) {
	var rows []*domain.RewardRedemption
	if userID == uuid.Nil {
		return rows, nil
	}
	q := r.base(dbc).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("redeemed_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *redemptionRepo) CountByUserAndReward(dbc dbctx.Context, userID, rewardID uuid.UUID) (int64, error) {
	var n int64
	if userID == uuid.Nil || rewardID == uuid.Nil {
		return 0, nil
	}
	if err := r.base(dbc).Model(&domain.RewardRedemption{}).
		Where("user_id = ? AND reward_id = ? AND status <> ?", userID, rewardID, domain.RedemptionCancelled).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *redemptionRepo) CancelIfPending(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	return r.guard.UpdateByStatus(dbc, domain.RewardRedemption{}.TableName(), id,
		[]string{string(domain.RedemptionPending)},
		map[string]any{
			"status":     domain.RedemptionCancelled,
			"updated_at": gorm.Expr("now()"),
		})
}

func (r *redemptionRepo) TransitionStatus(dbc dbctx.Context, id uuid.UUID, from []domain.RedemptionStatus, updates map[string]any) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}
	return r.guard.UpdateByStatus(dbc, domain.RewardRedemption{}.TableName(), id, allowed, updates)
}

func (r *redemptionRepo) StatsByReward(dbc dbctx.Context, rewardID uuid.UUID) (*RedemptionStats, error) {
	stats := &RedemptionStats{ByStatus: map[domain.RedemptionStatus]int64{}}
	if rewardID == uuid.Nil {
		return stats, nil
	}
	var rows []struct {
		Status domain.RedemptionStatus
		N      int64
		Spent  int64
	}
	if err := r.base(dbc).Model(&domain.RewardRedemption{}).
		Select("status, COUNT(*) AS n, COALESCE(SUM(points_spent), 0) AS spent").
		Where("reward_id = ?", rewardID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.N
		stats.Total += row.N
		if row.Status != domain.RedemptionCancelled {
			stats.PointsSpent += row.Spent
		}
	}
	return stats, nil
}
