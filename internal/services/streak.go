package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/data/repos/points"
	"github.com/stillpath/stillpath-backend/internal/data/repos/streaks"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

const (
	baseCheckInPoints = 10
	streakFreezeCost  = 100
)

// milestoneBonus is granted only on the exact day the streak reaches the
// milestone. A streak that breaks before a milestone forfeits that bonus.
type milestone struct {
	Days  int
	Bonus int
}

var streakMilestones = []milestone{
	{3, 20}, {7, 50}, {14, 100}, {30, 200},
	{60, 400}, {100, 750}, {180, 1500}, {365, 3000},
}

func milestoneBonus(days int) int {
	for _, m := range streakMilestones {
		if m.Days == days {
			return m.Bonus
		}
	}
	return 0
}

func nextMilestoneAfter(days int) int {
	for _, m := range streakMilestones {
		if m.Days > days {
			return m.Days
		}
	}
	return 0
}

type CheckInResult struct {
	Streak           int  `json:"streak"`
	PointsEarned     int  `json:"points_earned"`
	StreakBonus      int  `json:"streak_bonus"`
	NextMilestone    int  `json:"next_milestone"`
	AlreadyCheckedIn bool `json:"already_checked_in"`
}

type FreezeResult struct {
	Streak          int `json:"streak"`
	AvailablePoints int `json:"available_points"`
	PointsSpent     int `json:"points_spent"`
}

type UserStreak struct {
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastCheckIn        *time.Time `json:"last_check_in,omitempty"`
	NextMilestone      int        `json:"next_milestone"`
	BonusPointsAccrued int        `json:"bonus_points_accrued"`
}

type StreakLeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
}

// StreakService tracks calendar-day check-in continuity.
//
// Day model: CheckIn compares UTC calendar dates, so two check-ins within
// the same UTC day are a no-op pair regardless of elapsed hours.
// NeedsCheckIn deliberately keeps the rolling-24h reminder model the
// product uses for nudges; the two can disagree near midnight.
type StreakService interface {
	CheckIn(ctx context.Context, userID uuid.UUID) (*CheckInResult, error)
	UseStreakFreeze(ctx context.Context, userID uuid.UUID) (*FreezeResult, error)
	NeedsCheckIn(ctx context.Context, userID uuid.UUID) (bool, error)
	GetUserStreak(ctx context.Context, userID uuid.UUID) (*UserStreak, error)
	GetStreakHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.StreakRecord, error)
	GetStreakLeaderboard(ctx context.Context, limit int) ([]StreakLeaderboardEntry, error)
}

type streakService struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	accounts points.AccountRepo
	records  streaks.StreakRecordRepo
	ledger   LedgerService
	notifier ProgressionNotifier
	now      func() time.Time
}

func NewStreakService(log *logger.Logger, tx aggregates.TxRunner, accounts points.AccountRepo, records streaks.StreakRecordRepo, ledger LedgerService, notifier ProgressionNotifier) StreakService {
	return &streakService{
		log:      log.With("service", "StreakService"),
		tx:       tx,
		accounts: accounts,
		records:  records,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func (s *streakService) CheckIn(ctx context.Context, userID uuid.UUID) (*CheckInResult, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}

	var (
		result *CheckInResult
		acct   *domain.Account
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		acct, err = s.accounts.GetOrCreate(dbc, userID)
		if err != nil {
			return aggregates.MapError("streak.checkin", err)
		}

		now := s.now().UTC()
		if acct.LastCheckIn != nil && sameUTCDate(*acct.LastCheckIn, now) {
			result = &CheckInResult{
				Streak:           acct.CurrentStreak,
				NextMilestone:    nextMilestoneAfter(acct.CurrentStreak),
				AlreadyCheckedIn: true,
			}
			return nil
		}

		yesterday := now.AddDate(0, 0, -1)
		continued := acct.LastCheckIn != nil && sameUTCDate(*acct.LastCheckIn, yesterday)
		newStreak := 1
		if continued {
			newStreak = acct.CurrentStreak + 1
		}
		bonus := milestoneBonus(newStreak)
		longest := acct.LongestStreak
		if newStreak > longest {
			longest = newStreak
		}

		// CAS on last_check_in: of two concurrent check-ins only one moves
		// the account, the loser reads as already checked in today.
		ok, err := s.accounts.UpdateStreakStateIfUnchanged(dbc, acct.ID, acct.LastCheckIn, newStreak, longest, now)
		if err != nil {
			return aggregates.MapError("streak.checkin", err)
		}
		if !ok {
			result = &CheckInResult{
				Streak:           acct.CurrentStreak,
				NextMilestone:    nextMilestoneAfter(acct.CurrentStreak),
				AlreadyCheckedIn: true,
			}
			return nil
		}

		open, err := s.records.GetOpenByUser(dbc, userID)
		if err != nil {
			return aggregates.MapError("streak.checkin", err)
		}
		if !continued && open != nil {
			if err := s.records.MarkBroken(dbc, open.ID); err != nil {
				return aggregates.MapError("streak.checkin", err)
			}
			open = nil
		}
		if open == nil {
			milestones := datatypes.JSONSlice[int]{}
			if bonus > 0 {
				milestones = append(milestones, newStreak)
			}
			record := &domain.StreakRecord{
				UserID:             userID,
				StreakCount:        newStreak,
				StreakStartDate:    now,
				LastCheckInDate:    now,
				BonusPointsAccrued: bonus,
				MilestonesAchieved: milestones,
			}
			if _, err := s.records.Create(dbc, []*domain.StreakRecord{record}); err != nil {
				return aggregates.MapError("streak.checkin", err)
			}
		} else {
			milestones := open.MilestonesAchieved
			if bonus > 0 {
				milestones = append(milestones, newStreak)
			}
			updates := map[string]any{
				"streak_count":         newStreak,
				"last_check_in_date":   now,
				"bonus_points_accrued": open.BonusPointsAccrued + bonus,
				"milestones_achieved":  milestones,
			}
			if err := s.records.UpdateFields(dbc, open.ID, updates); err != nil {
				return aggregates.MapError("streak.checkin", err)
			}
		}

		earned := baseCheckInPoints + bonus
		acct, err = s.ledger.AwardInTx(dbc, userID, earned, domain.ReasonDailyCheckin,
			fmt.Sprintf("Daily check-in, day %d", newStreak), nil)
		if err != nil {
			return err
		}

		result = &CheckInResult{
			Streak:        newStreak,
			PointsEarned:  earned,
			StreakBonus:   bonus,
			NextMilestone: nextMilestoneAfter(newStreak),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadyCheckedIn {
		s.notifier.StreakAdvanced(userID, result.Streak, result.PointsEarned)
		s.notifier.BalanceChanged(userID, acct.AvailablePoints, acct.TotalPoints)
	}
	return result, nil
}

// UseStreakFreeze spends points to move last_check_in forward without
// advancing the streak, so the next check-in does not see a gap.
func (s *streakService) UseStreakFreeze(ctx context.Context, userID uuid.UUID) (*FreezeResult, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}

	var (
		result *FreezeResult
		acct   *domain.Account
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		existing, err := s.accounts.GetByUserID(dbc, userID)
		if err != nil {
			return aggregates.MapError("streak.freeze", err)
		}
		if existing == nil {
			return aggregates.InsufficientBalanceError("no points account for user")
		}

		acct, err = s.ledger.SpendInTx(dbc, userID, streakFreezeCost, domain.ReasonStreakFreeze, "Streak freeze", nil)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		ok, err := s.accounts.UpdateStreakStateIfUnchanged(dbc, existing.ID, existing.LastCheckIn,
			existing.CurrentStreak, existing.LongestStreak, now)
		if err != nil {
			return aggregates.MapError("streak.freeze", err)
		}
		if !ok {
			return aggregates.ConflictError("concurrent streak update, retry freeze")
		}

		open, err := s.records.GetOpenByUser(dbc, userID)
		if err != nil {
			return aggregates.MapError("streak.freeze", err)
		}
		if open != nil {
			if err := s.records.UpdateFields(dbc, open.ID, map[string]any{"last_check_in_date": now}); err != nil {
				return aggregates.MapError("streak.freeze", err)
			}
		}

		result = &FreezeResult{
			Streak:          existing.CurrentStreak,
			AvailablePoints: acct.AvailablePoints,
			PointsSpent:     streakFreezeCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.BalanceChanged(userID, acct.AvailablePoints, acct.TotalPoints)
	return result, nil
}

func (s *streakService) NeedsCheckIn(ctx context.Context, userID uuid.UUID) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return false, aggregates.MapError("streak.needscheckin", err)
	}
	if acct == nil || acct.LastCheckIn == nil {
		return true, nil
	}
	return s.now().Sub(*acct.LastCheckIn) >= 24*time.Hour, nil
}

func (s *streakService) GetUserStreak(ctx context.Context, userID uuid.UUID) (*UserStreak, error) {
	dbc := dbctx.Context{Ctx: ctx}
	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("streak.get", err)
	}
	if acct == nil {
		return &UserStreak{NextMilestone: nextMilestoneAfter(0)}, nil
	}
	out := &UserStreak{
		CurrentStreak: acct.CurrentStreak,
		LongestStreak: acct.LongestStreak,
		LastCheckIn:   acct.LastCheckIn,
		NextMilestone: nextMilestoneAfter(acct.CurrentStreak),
	}
	open, err := s.records.GetOpenByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("streak.get", err)
	}
	if open != nil {
		out.BonusPointsAccrued = open.BonusPointsAccrued
	}
	return out, nil
}

func (s *streakService) GetStreakHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.StreakRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.records.ListByUser(dbc, userID, limit)
	if err != nil {
		return nil, aggregates.MapError("streak.history", err)
	}
	return rows, nil
}

func (s *streakService) GetStreakLeaderboard(ctx context.Context, limit int) ([]StreakLeaderboardEntry, error) {
	dbc := dbctx.Context{Ctx: ctx}
	accts, err := s.accounts.StreakLeaderboard(dbc, limit)
	if err != nil {
		return nil, aggregates.MapError("streak.leaderboard", err)
	}
	entries := make([]StreakLeaderboardEntry, 0, len(accts))
	for i, acct := range accts {
		entries = append(entries, StreakLeaderboardEntry{
			Rank:          i + 1,
			UserID:        acct.UserID,
			CurrentStreak: acct.CurrentStreak,
			LongestStreak: acct.LongestStreak,
		})
	}
	return entries, nil
}
