package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type LeaderboardOverview struct {
	Points  []LeaderboardEntry       `json:"points"`
	Streaks []StreakLeaderboardEntry `json:"streaks"`
}

type MyStanding struct {
	Rank    int             `json:"rank"`
	Summary *AccountSummary `json:"summary"`
}

// LeaderboardService composes the points and streak boards into one read.
type LeaderboardService interface {
	GetOverview(ctx context.Context, limit int) (*LeaderboardOverview, error)
	GetMyStanding(ctx context.Context, userID uuid.UUID) (*MyStanding, error)
}

type leaderboardService struct {
	log     *logger.Logger
	ledger  LedgerService
	streaks StreakService
}

func NewLeaderboardService(log *logger.Logger, ledger LedgerService, streaks StreakService) LeaderboardService {
	return &leaderboardService{
		log:     log.With("service", "LeaderboardService"),
		ledger:  ledger,
		streaks: streaks,
	}
}

func (s *leaderboardService) GetOverview(ctx context.Context, limit int) (*LeaderboardOverview, error) {
	overview := &LeaderboardOverview{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.ledger.GetLeaderboard(gctx, limit)
		if err != nil {
			return err
		}
		overview.Points = entries
		return nil
	})
	g.Go(func() error {
		entries, err := s.streaks.GetStreakLeaderboard(gctx, limit)
		if err != nil {
			return err
		}
		overview.Streaks = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *leaderboardService) GetMyStanding(ctx context.Context, userID uuid.UUID) (*MyStanding, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}
	summary, err := s.ledger.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	rank, err := s.ledger.GetRank(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MyStanding{Rank: rank, Summary: summary}, nil
}
