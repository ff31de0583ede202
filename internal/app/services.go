package app

import (
	"gorm.io/gorm"

	redisclient "github.com/stillpath/stillpath-backend/internal/clients/redis"
	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
	"github.com/stillpath/stillpath-backend/internal/services"
)

type Services struct {
	Ledger      services.LedgerService
	Streak      services.StreakService
	Challenge   services.ChallengeService
	Reward      services.RewardService
	Activity    services.ActivityService
	Leaderboard services.LeaderboardService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, bus redisclient.EventBus) Services {
	log.Info("Wiring services...")
	txRunner := aggregates.NewGormTxRunner(db)

	var notifier services.ProgressionNotifier = services.NopNotifier{}
	if bus != nil {
		notifier = services.NewBusNotifier(log, bus)
	}

	ledger := services.NewLedgerService(log, txRunner, repos.Account, repos.Transaction, notifier)
	streak := services.NewStreakService(log, txRunner, repos.Account, repos.StreakRecord, ledger, notifier)
	challenge := services.NewChallengeService(log, txRunner, repos.Template, repos.Enrollment, repos.Account, ledger, notifier)
	reward := services.NewRewardService(log, txRunner, repos.RewardItem, repos.Redemption, repos.Account, ledger, notifier)
	activity := services.NewActivityService(log, ledger, challenge)
	leaderboard := services.NewLeaderboardService(log, ledger, streak)

	return Services{
		Ledger:      ledger,
		Streak:      streak,
		Challenge:   challenge,
		Reward:      reward,
		Activity:    activity,
		Leaderboard: leaderboard,
	}
}
