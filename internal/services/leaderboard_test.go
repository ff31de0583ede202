package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/domain"
)

func TestLeaderboardOverview(t *testing.T) {
	accounts := newFakeAccounts()
	txns := newFakeTransactions()
	records := newFakeStreakRecords()
	notifier := &recordingNotifier{}
	log := testLogger(t)
	ledger := NewLedgerService(log, fakeTxRunner{}, accounts, txns, notifier)
	streaks := NewStreakService(log, fakeTxRunner{}, accounts, records, ledger, notifier).(*streakService)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	streaks.now = func() time.Time { return clock }
	svc := NewLeaderboardService(log, ledger, streaks)

	ctx := context.Background()
	rich := uuid.New()
	steady := uuid.New()
	if _, err := ledger.Award(ctx, rich, 500, domain.ReasonSessionComplete, "", nil); err != nil {
		t.Fatalf("award: %v", err)
	}
	for day := 0; day < 3; day++ {
		if _, err := streaks.CheckIn(ctx, steady); err != nil {
			t.Fatalf("check-in: %v", err)
		}
		clock = clock.AddDate(0, 0, 1)
	}

	overview, err := svc.GetOverview(ctx, 10)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(overview.Points) != 2 || len(overview.Streaks) != 2 {
		t.Fatalf("board sizes = %d/%d, want 2/2", len(overview.Points), len(overview.Streaks))
	}
	if overview.Points[0].UserID != rich {
		t.Fatal("points board must lead with the highest total")
	}
	if overview.Streaks[0].UserID != steady || overview.Streaks[0].CurrentStreak != 3 {
		t.Fatalf("streak board head = %+v, want the 3-day streak", overview.Streaks[0])
	}

	standing, err := svc.GetMyStanding(ctx, steady)
	if err != nil {
		t.Fatalf("standing: %v", err)
	}
	if standing.Rank != 2 {
		t.Fatalf("rank = %d, want 2", standing.Rank)
	}
	if standing.Summary.CurrentStreak != 3 {
		t.Fatalf("summary streak = %d, want 3", standing.Summary.CurrentStreak)
	}
}
