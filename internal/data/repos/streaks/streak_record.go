package streaks

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type StreakRecordRepo interface {
	Create(dbc dbctx.Context, rows []*domain.StreakRecord) ([]*domain.StreakRecord, error)
	GetOpenByUser(dbc dbctx.Context, userID uuid.UUID) (*domain.StreakRecord, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.StreakRecord, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	MarkBroken(dbc dbctx.Context, id uuid.UUID) error
}

type streakRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRecordRepo(db *gorm.DB, baseLog *logger.Logger) StreakRecordRepo {
	return &streakRecordRepo{db: db, log: baseLog.With("repo", "StreakRecordRepo")}
}

func (r *streakRecordRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *streakRecordRepo) Create(dbc dbctx.Context, rows []*domain.StreakRecord) ([]*domain.StreakRecord, error) {
	if len(rows) == 0 {
		return []*domain.StreakRecord{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *streakRecordRepo) GetOpenByUser(dbc dbctx.Context, userID uuid.UUID) (*domain.StreakRecord, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.StreakRecord
	if err := r.base(dbc).
		Where("user_id = ? AND is_broken = ?", userID, false).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *streakRecordRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.StreakRecord, error) {
	var rows []*domain.StreakRecord
	if userID == uuid.Nil {
		return rows, nil
	}
	q := r.base(dbc).
		Where("user_id = ?", userID).
		Order("last_check_in_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *streakRecordRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return r.base(dbc).Model(&domain.StreakRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *streakRecordRepo) MarkBroken(dbc dbctx.Context, id uuid.UUID) error {
	return r.UpdateFields(dbc, id, map[string]any{"is_broken": true})
}
