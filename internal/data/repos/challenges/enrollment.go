package challenges

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ChallengeEnrollment) ([]*domain.ChallengeEnrollment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ChallengeEnrollment, error)
	GetByUserAndChallenge(dbc dbctx.Context, userID, challengeID uuid.UUID) (*domain.ChallengeEnrollment, error)
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.ChallengeEnrollment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error)
	ListCompletedByChallenge(dbc dbctx.Context, challengeID uuid.UUID, limit int) ([]*domain.ChallengeEnrollment, error)
	CountByStatus(dbc dbctx.Context, challengeID uuid.UUID) (map[domain.EnrollmentStatus]int64, error)

	// IncrementProgress adds to progress only while the row is ACTIVE.
	IncrementProgress(dbc dbctx.Context, id uuid.UUID, by int) (bool, error)

	// CompleteIfActive performs the exactly-once ACTIVE -> COMPLETED
	// transition; only the winning caller sees true.
	CompleteIfActive(dbc dbctx.Context, id uuid.UUID, pointsEarned int, completedAt time.Time) (bool, error)

	// ExpireEnded moves every ACTIVE enrollment whose template end date has
	// passed to EXPIRED. Idempotent.
	ExpireEnded(dbc dbctx.Context, now time.Time) (int64, error)
}

type enrollmentRepo struct {
	db    *gorm.DB
	guard aggregates.CASGuard
	log   *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{
		db:    db,
		guard: aggregates.NewCASGuard(db),
		log:   baseLog.With("repo", "EnrollmentRepo"),
	}
}

func (r *enrollmentRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*domain.ChallengeEnrollment) ([]*domain.ChallengeEnrollment, error) {
	if len(rows) == 0 {
		return []*domain.ChallengeEnrollment{}, nil
	}
	if err := r.base(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ChallengeEnrollment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.ChallengeEnrollment
	if err := r.base(dbc).
		Preload("Challenge").
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

func (r *enrollmentRepo) GetByUserAndChallenge(dbc dbctx.Context, userID, challengeID uuid.UUID) (*domain.ChallengeEnrollment, error) {
	if userID == uuid.Nil || challengeID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.ChallengeEnrollment
	if err := r.base(dbc).
		Preload("Challenge").
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *enrollmentRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.ChallengeEnrollment, error) {
	var rows []*domain.ChallengeEnrollment
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := r.base(dbc).
		Preload("Challenge").
		Where("user_id = ? AND status = ?", userID, domain.EnrollmentActive).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	var rows []*domain.ChallengeEnrollment
	if userID == uuid.Nil {
		return rows, nil
	}
	q := r.base(dbc).
		Preload("Challenge").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCompletedByChallenge orders by completion time ascending: the first
// finisher ranks highest.
func (r *enrollmentRepo) ListCompletedByChallenge(dbc dbctx.Context, challengeID uuid.UUID, limit int) ([]*domain.ChallengeEnrollment, error) {
	var rows []*domain.ChallengeEnrollment
	if challengeID == uuid.Nil {
		return rows, nil
	}
	q := r.base(dbc).
		Where("challenge_id = ? AND status = ?", challengeID, domain.EnrollmentCompleted).
		Order("completed_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) CountByStatus(dbc dbctx.Context, challengeID uuid.UUID) (map[domain.EnrollmentStatus]int64, error) {
	out := map[domain.EnrollmentStatus]int64{}
	if challengeID == uuid.Nil {
		return out, nil
	}
	var rows []struct {
		Status domain.EnrollmentStatus
		N      int64
	}
	if err := r.base(dbc).Model(&domain.ChallengeEnrollment{}).
		Select("status, COUNT(*) AS n").
		Where("challenge_id = ?", challengeID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *enrollmentRepo) IncrementProgress(dbc dbctx.Context, id uuid.UUID, by int) (bool, error) {
	res := r.base(dbc).Model(&domain.ChallengeEnrollment{}).
		Where("id = ? AND status = ?", id, domain.EnrollmentActive).
		Updates(map[string]any{
			"progress":   gorm.Expr("progress + ?", by),
			"updated_at": gorm.Expr("now()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) CompleteIfActive(dbc dbctx.Context, id uuid.UUID, pointsEarned int, completedAt time.Time) (bool, error) {
	return r.guard.UpdateByStatus(dbc, domain.ChallengeEnrollment{}.TableName(), id,
		[]string{string(domain.EnrollmentActive)},
		map[string]any{
			"status":        domain.EnrollmentCompleted,
			"points_earned": pointsEarned,
			"completed_at":  completedAt,
			"updated_at":    gorm.Expr("now()"),
		})
}

func (r *enrollmentRepo) ExpireEnded(dbc dbctx.Context, now time.Time) (int64, error) {
	res := r.base(dbc).Model(&domain.ChallengeEnrollment{}).
		Where("status = ?", domain.EnrollmentActive).
		Where("challenge_id IN (?)",
			r.base(dbc).Model(&domain.ChallengeTemplate{}).
				Select("id").
				Where("end_date IS NOT NULL AND end_date < ?", now),
		).
		Updates(map[string]any{
			"status":     domain.EnrollmentExpired,
			"updated_at": gorm.Expr("now()"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
