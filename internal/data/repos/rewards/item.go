package rewards

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type RewardItemRepo interface {
	Create(dbc dbctx.Context, rows []*domain.RewardItem) ([]*domain.RewardItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RewardItem, error)
	List(dbc dbctx.Context, category *domain.RewardCategory, featured *bool) ([]*domain.RewardItem, error)
	Featured(dbc dbctx.Context, limit int) ([]*domain.RewardItem, error)
	Affordable(dbc dbctx.Context, maxCost int) ([]*domain.RewardItem, error)
	Popular(dbc dbctx.Context, limit int) ([]*domain.RewardItem, error)
	Search(dbc dbctx.Context, query string, category *domain.RewardCategory) ([]*domain.RewardItem, error)
	SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error

	// DecrementStock takes one unit only while tracked stock remains.
	// Callers skip this entirely for unlimited-stock rewards.
	DecrementStock(dbc dbctx.Context, id uuid.UUID) (bool, error)

	// RestoreStock gives one unit back on cancellation; a no-op for
	// unlimited-stock rewards.
	RestoreStock(dbc dbctx.Context, id uuid.UUID) error
}

type rewardItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRewardItemRepo(db *gorm.DB, baseLog *logger.Logger) RewardItemRepo {
	return &rewardItemRepo{db: db, log: baseLog.With("repo", "RewardItemRepo")}
}

func (r *rewardItemRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *rewardItemRepo) Create(dbc dbctx.Context, rows []*domain.RewardItem) ([]*domain.RewardItem, error) {
	if len(rows) == 0 {
		return []*domain.RewardItem{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rewardItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RewardItem, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.RewardItem
	if err := r.base(dbc).
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

func (r *rewardItemRepo) List(dbc dbctx.Context, category *domain.RewardCategory, featured *bool) ([]*domain.RewardItem, error) {
	var rows []*domain.RewardItem
	q := r.base(dbc).
		Where("is_active = ?", true).
		Order("point_cost ASC")
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	if featured != nil {
		q = q.Where("is_featured = ?", *featured)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rewardItemRepo) Featured(dbc dbctx.Context, limit int) ([]*domain.RewardItem, error) {
	var rows []*domain.RewardItem
	q := r.base(dbc).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("point_cost ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rewardItemRepo) Affordable(dbc dbctx.Context, maxCost int) ([]*domain.RewardItem, error) {
	var rows []*domain.RewardItem
	if maxCost < 0 {
		return rows, nil
	}
	if err := r.base(dbc).
		Where("is_active = ? AND point_cost <= ?", true, maxCost).
		Order("point_cost ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Popular orders rewards by the number of non-cancelled redemptions.
func (r *rewardItemRepo) Popular(dbc dbctx.Context, limit int) ([]*domain.RewardItem, error) {
	var rows []*domain.RewardItem
	q := r.base(dbc).Model(&domain.RewardItem{}).
		Select("reward_items.*, COUNT(rr.id) AS redemption_count").
		Joins("LEFT JOIN reward_redemptions rr ON rr.reward_id = reward_items.id AND rr.status <> ?", domain.RedemptionCancelled).
		Where("reward_items.is_active = ?", true).
		Group("reward_items.id").
		Order("redemption_count DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rewardItemRepo) Search(dbc dbctx.Context, query string, category *domain.RewardCategory) ([]*domain.RewardItem, error) {
	var rows []*domain.RewardItem
	query = strings.TrimSpace(query)
	if query == "" {
		return rows, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.base(dbc).
		Where("is_active = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", pattern, pattern, pattern).
		Order("point_cost ASC")
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *rewardItemRepo) SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return nil
	}
	return r.base(dbc).Model(&domain.RewardItem{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *rewardItemRepo) DecrementStock(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := r.base(dbc).Model(&domain.RewardItem{}).
		Where("id = ? AND stock_quantity > 0", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - 1"),
			"updated_at":     gorm.Expr("now()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rewardItemRepo) RestoreStock(dbc dbctx.Context, id uuid.UUID) error {
	return r.base(dbc).Model(&domain.RewardItem{}).
		Where("id = ? AND stock_quantity IS NOT NULL", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + 1"),
			"updated_at":     gorm.Expr("now()"),
		}).Error
}
