package app

import (
	"gorm.io/gorm"

	"github.com/stillpath/stillpath-backend/internal/data/repos/challenges"
	"github.com/stillpath/stillpath-backend/internal/data/repos/points"
	"github.com/stillpath/stillpath-backend/internal/data/repos/rewards"
	"github.com/stillpath/stillpath-backend/internal/data/repos/streaks"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type Repos struct {
	Account      points.AccountRepo
	Transaction  points.TransactionRepo
	StreakRecord streaks.StreakRecordRepo
	Template     challenges.TemplateRepo
	Enrollment   challenges.EnrollmentRepo
	RewardItem   rewards.RewardItemRepo
	Redemption   rewards.RedemptionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Account:      points.NewAccountRepo(db, log),
		Transaction:  points.NewTransactionRepo(db, log),
		StreakRecord: streaks.NewStreakRecordRepo(db, log),
		Template:     challenges.NewTemplateRepo(db, log),
		Enrollment:   challenges.NewEnrollmentRepo(db, log),
		RewardItem:   rewards.NewRewardItemRepo(db, log),
		Redemption:   rewards.NewRedemptionRepo(db, log),
	}
}
