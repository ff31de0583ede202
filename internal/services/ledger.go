package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/data/repos/points"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

type AccountSummary struct {
	UserID          uuid.UUID  `json:"user_id"`
	TotalPoints     int        `json:"total_points"`
	AvailablePoints int        `json:"available_points"`
	LifetimeEarned  int        `json:"lifetime_earned"`
	LifetimeSpent   int        `json:"lifetime_spent"`
	CurrentStreak   int        `json:"current_streak"`
	LongestStreak   int        `json:"longest_streak"`
	LastCheckIn     *time.Time `json:"last_check_in,omitempty"`
}

type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	TotalPoints   int       `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
}

// LedgerService owns the account balance and the append-only transaction
// log. Every other service mutates points only through it. The InTx
// variants run against the caller's transaction so a failing enclosing
// operation rolls the balance change back with everything else.
type LedgerService interface {
	Award(ctx context.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*AccountSummary, error)
	Spend(ctx context.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*AccountSummary, error)

	AwardInTx(dbc dbctx.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*domain.Account, error)
	SpendInTx(dbc dbctx.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*domain.Account, error)

	GetSummary(ctx context.Context, userID uuid.UUID) (*AccountSummary, error)
	GetTransactionHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error)
	GetRank(ctx context.Context, userID uuid.UUID) (int, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type ledgerService struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	accounts points.AccountRepo
	txns     points.TransactionRepo
	notifier ProgressionNotifier
}

func NewLedgerService(log *logger.Logger, tx aggregates.TxRunner, accounts points.AccountRepo, txns points.TransactionRepo, notifier ProgressionNotifier) LedgerService {
	return &ledgerService{
		log:      log.With("service", "LedgerService"),
		tx:       tx,
		accounts: accounts,
		txns:     txns,
		notifier: notifier,
	}
}

func marshalMetadata(metadata map[string]any) datatypes.JSON {
	if len(metadata) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *ledgerService) Award(ctx context.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*AccountSummary, error) {
	var acct *domain.Account
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var txErr error
		acct, txErr = s.AwardInTx(dbc, userID, pts, reason, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.notifier.BalanceChanged(userID, acct.AvailablePoints, acct.TotalPoints)
	return summaryOf(acct), nil
}

func (s *ledgerService) AwardInTx(dbc dbctx.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*domain.Account, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}
	if pts <= 0 {
		return nil, aggregates.ValidationError("points must be positive")
	}

	acct, err := s.accounts.GetOrCreate(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("ledger.award", err)
	}
	ok, err := s.accounts.Credit(dbc, acct.ID, pts)
	if err != nil {
		return nil, aggregates.MapError("ledger.award", err)
	}
	if !ok {
		return nil, aggregates.NotFoundError("account disappeared during award")
	}

	txn := &domain.PointTransaction{
		UserID:      userID,
		AccountID:   acct.ID,
		PointsDelta: pts,
		Reason:      reason,
		Description: description,
		Metadata:    marshalMetadata(metadata),
	}
	if _, err := s.txns.Create(dbc, []*domain.PointTransaction{txn}); err != nil {
		return nil, aggregates.MapError("ledger.award", err)
	}

	acct.TotalPoints += pts
	acct.AvailablePoints += pts
	acct.LifetimeEarned += pts
	return acct, nil
}

func (s *ledgerService) Spend(ctx context.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*AccountSummary, error) {
	var acct *domain.Account
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var txErr error
		acct, txErr = s.SpendInTx(dbc, userID, pts, reason, description, metadata)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.notifier.BalanceChanged(userID, acct.AvailablePoints, acct.TotalPoints)
	return summaryOf(acct), nil
}

func (s *ledgerService) SpendInTx(dbc dbctx.Context, userID uuid.UUID, pts int, reason domain.TransactionReason, description string, metadata map[string]any) (*domain.Account, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}
	if pts <= 0 {
		return nil, aggregates.ValidationError("points must be positive")
	}

	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("ledger.spend", err)
	}
	if acct == nil {
		// No account means no points were ever earned.
		return nil, aggregates.InsufficientBalanceError("no points account for user")
	}
	ok, err := s.accounts.Debit(dbc, acct.ID, pts)
	if err != nil {
		return nil, aggregates.MapError("ledger.spend", err)
	}
	if !ok {
		return nil, aggregates.InsufficientBalanceError("available points below requested spend")
	}

	txn := &domain.PointTransaction{
		UserID:      userID,
		AccountID:   acct.ID,
		PointsDelta: -pts,
		Reason:      reason,
		Description: description,
		Metadata:    marshalMetadata(metadata),
	}
	if _, err := s.txns.Create(dbc, []*domain.PointTransaction{txn}); err != nil {
		return nil, aggregates.MapError("ledger.spend", err)
	}

	acct.AvailablePoints -= pts
	acct.LifetimeSpent += pts
	return acct, nil
}

func (s *ledgerService) GetSummary(ctx context.Context, userID uuid.UUID) (*AccountSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("ledger.summary", err)
	}
	if acct == nil {
		// Lazily-created accounts read as all zeroes before first earn.
		return &AccountSummary{UserID: userID}, nil
	}
	return summaryOf(acct), nil
}

func (s *ledgerService) GetTransactionHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PointTransaction, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.txns.ListByUser(dbc, userID, limit, offset)
	if err != nil {
		return nil, aggregates.MapError("ledger.history", err)
	}
	return rows, nil
}

func (s *ledgerService) GetRank(ctx context.Context, userID uuid.UUID) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	acct, err := s.accounts.GetByUserID(dbc, userID)
	if err != nil {
		return 0, aggregates.MapError("ledger.rank", err)
	}
	if acct == nil {
		return 0, aggregates.NotFoundError("no points account for user")
	}
	rank, err := s.accounts.RankByTotalPoints(dbc, acct.TotalPoints)
	if err != nil {
		return 0, aggregates.MapError("ledger.rank", err)
	}
	return int(rank), nil
}

func (s *ledgerService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	dbc := dbctx.Context{Ctx: ctx}
	accts, err := s.accounts.Leaderboard(dbc, limit)
	if err != nil {
		return nil, aggregates.MapError("ledger.leaderboard", err)
	}
	entries := make([]LeaderboardEntry, 0, len(accts))
	for i, acct := range accts {
		rank := i + 1
		// Equal totals share the rank of the first account at that total.
		if i > 0 && acct.TotalPoints == accts[i-1].TotalPoints {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:          rank,
			UserID:        acct.UserID,
			TotalPoints:   acct.TotalPoints,
			CurrentStreak: acct.CurrentStreak,
		})
	}
	return entries, nil
}

func summaryOf(acct *domain.Account) *AccountSummary {
	return &AccountSummary{
		UserID:          acct.UserID,
		TotalPoints:     acct.TotalPoints,
		AvailablePoints: acct.AvailablePoints,
		LifetimeEarned:  acct.LifetimeEarned,
		LifetimeSpent:   acct.LifetimeSpent,
		CurrentStreak:   acct.CurrentStreak,
		LongestStreak:   acct.LongestStreak,
		LastCheckIn:     acct.LastCheckIn,
	}
}
