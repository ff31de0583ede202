package points

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type AccountRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.Account, error)
	GetOrCreate(dbc dbctx.Context, userID uuid.UUID) (*domain.Account, error)

	// Credit applies an unconditional earn: total, available and
	// lifetime_earned all move by points in one statement.
	Credit(dbc dbctx.Context, accountID uuid.UUID, points int) (bool, error)

	// Debit applies a spend guarded by the balance precondition. A false
	// return means the account had fewer than points available.
	Debit(dbc dbctx.Context, accountID uuid.UUID, points int) (bool, error)

	// UpdateStreakStateIfUnchanged moves the streak counters only while
	// last_check_in still matches what the caller read. The losing side of
	// two concurrent check-ins gets false.
	UpdateStreakStateIfUnchanged(dbc dbctx.Context, accountID uuid.UUID, expectedLastCheckIn *time.Time, currentStreak, longestStreak int, lastCheckIn time.Time) (bool, error)

	RankByTotalPoints(dbc dbctx.Context, totalPoints int) (int64, error)
	Leaderboard(dbc dbctx.Context, limit int) ([]*domain.Account, error)
	StreakLeaderboard(dbc dbctx.Context, limit int) ([]*domain.Account, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: baseLog.With("repo", "AccountRepo")}
}

func (r *accountRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *accountRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.Account, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var rows []*domain.Account
	if err := r.base(dbc).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *accountRepo) GetOrCreate(dbc dbctx.Context, userID uuid.UUID) (*domain.Account, error) {
	row := &domain.Account{UserID: userID}
	if err := r.base(dbc).
		Where("user_id = ?", userID).
		FirstOrCreate(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *accountRepo) Credit(dbc dbctx.Context, accountID uuid.UUID, points int) (bool, error) {
	res := r.base(dbc).Model(&domain.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"total_points":     gorm.Expr("total_points + ?", points),
			"available_points": gorm.Expr("available_points + ?", points),
			"lifetime_earned":  gorm.Expr("lifetime_earned + ?", points),
			"updated_at":       gorm.Expr("now()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRepo) Debit(dbc dbctx.Context, accountID uuid.UUID, points int) (bool, error) {
	res := r.base(dbc).Model(&domain.Account{}).
		Where("id = ? AND available_points >= ?", accountID, points).
		Updates(map[string]any{
			"available_points": gorm.Expr("available_points - ?", points),
			"lifetime_spent":   gorm.Expr("lifetime_spent + ?", points),
			"updated_at":       gorm.Expr("now()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRepo) UpdateStreakStateIfUnchanged(dbc dbctx.Context, accountID uuid.UUID, expectedLastCheckIn *time.Time, currentStreak, longestStreak int, lastCheckIn time.Time) (bool, error) {
	q := r.base(dbc).Model(&domain.Account{}).Where("id = ?", accountID)
	if expectedLastCheckIn == nil {
		q = q.Where("last_check_in IS NULL")
	} else {
		q = q.Where("last_check_in = ?", *expectedLastCheckIn)
	}
	res := q.Updates(map[string]any{
		"current_streak": currentStreak,
		"longest_streak": longestStreak,
		"last_check_in":  lastCheckIn,
		"updated_at":     gorm.Expr("now()"),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RankByTotalPoints implements shared ranks: 1 + count of accounts with a
// strictly greater total, so equal totals share a rank number.
func (r *accountRepo) RankByTotalPoints(dbc dbctx.Context, totalPoints int) (int64, error) {
	var greater int64
	if err := r.base(dbc).Model(&domain.Account{}).
		Where("total_points > ?", totalPoints).
		Count(&greater).Error; err != nil {
		return 0, err
	}
	return greater + 1, nil
}

func (r *accountRepo) Leaderboard(dbc dbctx.Context, limit int) ([]*domain.Account, error) {
	var rows []*domain.Account
	if limit <= 0 {
		return rows, nil
	}
	if err := r.base(dbc).
		Order("total_points DESC, current_streak DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *accountRepo) StreakLeaderboard(dbc dbctx.Context, limit int) ([]*domain.Account, error) {
	var rows []*domain.Account
	if limit <= 0 {
		return rows, nil
	}
	if err := r.base(dbc).
		Order("current_streak DESC, longest_streak DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
