package app

import (
	"github.com/stillpath/stillpath-backend/internal/handlers"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type Handlers struct {
	Ledger      *handlers.LedgerHandler
	Streak      *handlers.StreakHandler
	Challenge   *handlers.ChallengeHandler
	Reward      *handlers.RewardHandler
	Activity    *handlers.ActivityHandler
	Leaderboard *handlers.LeaderboardHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Ledger:      handlers.NewLedgerHandler(services.Ledger),
		Streak:      handlers.NewStreakHandler(services.Streak),
		Challenge:   handlers.NewChallengeHandler(services.Challenge),
		Reward:      handlers.NewRewardHandler(services.Reward),
		Activity:    handlers.NewActivityHandler(services.Activity),
		Leaderboard: handlers.NewLeaderboardHandler(services.Leaderboard),
	}
}
