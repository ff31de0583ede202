package challenges

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/data/repos/testutil"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
)

func seedEnrollment(t *testing.T, dbc dbctx.Context, templates TemplateRepo, enrollments EnrollmentRepo, endDate *time.Time) *domain.ChallengeEnrollment {
	t.Helper()
	tpl := &domain.ChallengeTemplate{
		Title:         "Integration",
		Type:          domain.ChallengeWeekly,
		Category:      domain.CategoryWellness,
		Difficulty:    domain.DifficultyBeginner,
		RequiredCount: 3,
		PointReward:   100,
		EndDate:       endDate,
		IsActive:      true,
	}
	if _, err := templates.Create(dbc, []*domain.ChallengeTemplate{tpl}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	enr := &domain.ChallengeEnrollment{
		UserID:      uuid.New(),
		ChallengeID: tpl.ID,
		AccountID:   uuid.New(),
		Status:      domain.EnrollmentActive,
	}
	if _, err := enrollments.Create(dbc, []*domain.ChallengeEnrollment{enr}); err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	return enr
}

func TestCompleteIfActiveIsExactlyOnce(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	log := testutil.Logger(t)
	templates := NewTemplateRepo(gdb, log)
	enrollments := NewEnrollmentRepo(gdb, log)

	enr := seedEnrollment(t, dbc, templates, enrollments, nil)

	ok, err := enrollments.IncrementProgress(dbc, enr.ID, 3)
	if err != nil || !ok {
		t.Fatalf("increment: ok=%v err=%v", ok, err)
	}

	completedAt := time.Now().UTC()
	won, err := enrollments.CompleteIfActive(dbc, enr.ID, 100, completedAt)
	if err != nil || !won {
		t.Fatalf("first completion: won=%v err=%v", won, err)
	}
	won, err = enrollments.CompleteIfActive(dbc, enr.ID, 100, completedAt)
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if won {
		t.Fatal("second completion must lose the status guard")
	}

	// Progress after completion is also rejected.
	ok, err = enrollments.IncrementProgress(dbc, enr.ID, 1)
	if err != nil {
		t.Fatalf("post-completion increment: %v", err)
	}
	if ok {
		t.Fatal("increment on a completed enrollment must report false")
	}
}

func TestExpireEnded(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	log := testutil.Logger(t)
	templates := NewTemplateRepo(gdb, log)
	enrollments := NewEnrollmentRepo(gdb, log)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	ended := seedEnrollment(t, dbc, templates, enrollments, &past)
	ongoing := seedEnrollment(t, dbc, templates, enrollments, &future)

	n, err := enrollments.ExpireEnded(dbc, time.Now())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	got, err := enrollments.GetByID(dbc, ended.ID)
	if err != nil {
		t.Fatalf("reread ended: %v", err)
	}
	if got.Status != domain.EnrollmentExpired {
		t.Fatalf("ended status = %s, want EXPIRED", got.Status)
	}
	got, err = enrollments.GetByID(dbc, ongoing.ID)
	if err != nil {
		t.Fatalf("reread ongoing: %v", err)
	}
	if got.Status != domain.EnrollmentActive {
		t.Fatalf("ongoing status = %s, want ACTIVE", got.Status)
	}
}
