package challenges

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ChallengeTemplate) ([]*domain.ChallengeTemplate, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ChallengeTemplate, error)
	List(dbc dbctx.Context, onlyActive bool, challengeType *domain.ChallengeType) ([]*domain.ChallengeTemplate, error)
	SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "ChallengeTemplateRepo")}
}

func (r *templateRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *templateRepo) Create(dbc dbctx.Context, rows []*domain.ChallengeTemplate) ([]*domain.ChallengeTemplate, error) {
	if len(rows) == 0 {
		return []*domain.ChallengeTemplate{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *templateRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ChallengeTemplate, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.ChallengeTemplate
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

func (r *templateRepo) List(dbc dbctx.Context, onlyActive bool, challengeType *domain.ChallengeType) ([]*domain.ChallengeTemplate, error) {
	var rows []*domain.ChallengeTemplate
	q := r.base(dbc).Order("created_at DESC")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if challengeType != nil {
		q = q.Where("type = ?", *challengeType)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *templateRepo) SetActive(dbc dbctx.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return nil
	}
	return r.base(dbc).Model(&domain.ChallengeTemplate{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
