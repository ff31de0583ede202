package points

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type TransactionRepo interface {
	Create(dbc dbctx.Context, rows []*domain.PointTransaction) ([]*domain.PointTransaction, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error)
	SumDeltaByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "TransactionRepo")}
}

func (r *transactionRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *transactionRepo) Create(dbc dbctx.Context, rows []*domain.PointTransaction) ([]*domain.PointTransaction, error) {
	if len(rows) == 0 {
		return []*domain.PointTransaction{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error) {
	var rows []*domain.PointTransaction
	if userID == uuid.Nil {
		return rows, nil
	}
	q := r.base(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *transactionRepo) SumDeltaByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.base(dbc).Model(&domain.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_delta), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
