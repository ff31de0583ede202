package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/data/repos/challenges"
	"github.com/stillpath/stillpath-backend/internal/data/repos/points"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/dbctx"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

// earlyCompletionWindow: finishing with more than this much time left
// before the template end date earns the bonus reward.
const earlyCompletionWindow = 3 * 24 * time.Hour

type CreateChallengeInput struct {
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	Type          domain.ChallengeType       `json:"type"`
	Category      domain.ChallengeCategory   `json:"category"`
	Difficulty    domain.ChallengeDifficulty `json:"difficulty"`
	RequiredCount int                        `json:"required_count"`
	PointReward   int                        `json:"point_reward"`
	BonusReward   *int                       `json:"bonus_reward,omitempty"`
	StartDate     *time.Time                 `json:"start_date,omitempty"`
	EndDate       *time.Time                 `json:"end_date,omitempty"`
}

type ProgressResult struct {
	Enrollment   *domain.ChallengeEnrollment `json:"enrollment"`
	Completed    bool                        `json:"completed"`
	PointsEarned int                         `json:"points_earned"`
}

type ChallengeStats struct {
	TotalEnrolled  int64   `json:"total_enrolled"`
	Active         int64   `json:"active"`
	Completed      int64   `json:"completed"`
	Expired        int64   `json:"expired"`
	CompletionRate float64 `json:"completion_rate"`
}

type ChallengeLeaderboardEntry struct {
	Rank         int        `json:"rank"`
	UserID       uuid.UUID  `json:"user_id"`
	PointsEarned int        `json:"points_earned"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ChallengeService manages templates and per-user enrollments. Enrollment
// status is a one-way machine: ACTIVE -> COMPLETED or ACTIVE -> EXPIRED,
// with the completion transition guarded so concurrent progress updates
// award the reward exactly once.
type ChallengeService interface {
	CreateTemplate(ctx context.Context, input CreateChallengeInput) (*domain.ChallengeTemplate, error)
	SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) error
	ListTemplates(ctx context.Context, onlyActive bool, challengeType *domain.ChallengeType) ([]*domain.ChallengeTemplate, error)

	Enroll(ctx context.Context, userID, challengeID uuid.UUID) (*domain.ChallengeEnrollment, error)
	UpdateProgress(ctx context.Context, userID, challengeID uuid.UUID, incrementBy int) (*ProgressResult, error)
	TrackActivity(ctx context.Context, userID uuid.UUID, activityType domain.ActivityType, metadata map[string]any) ([]*ProgressResult, error)
	ListUserEnrollments(ctx context.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error)

	ExpireSweep(ctx context.Context) (int64, error)

	GetChallengeLeaderboard(ctx context.Context, challengeID uuid.UUID, limit int) ([]ChallengeLeaderboardEntry, error)
	GetChallengeStats(ctx context.Context, challengeID uuid.UUID) (*ChallengeStats, error)
}

type challengeService struct {
	log         *logger.Logger
	tx          aggregates.TxRunner
	templates   challenges.TemplateRepo
	enrollments challenges.EnrollmentRepo
	accounts    points.AccountRepo
	ledger      LedgerService
	notifier    ProgressionNotifier
	now         func() time.Time
}

func NewChallengeService(log *logger.Logger, tx aggregates.TxRunner, templates challenges.TemplateRepo, enrollments challenges.EnrollmentRepo, accounts points.AccountRepo, ledger LedgerService, notifier ProgressionNotifier) ChallengeService {
	return &challengeService{
		log:         log.With("service", "ChallengeService"),
		tx:          tx,
		templates:   templates,
		enrollments: enrollments,
		accounts:    accounts,
		ledger:      ledger,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *challengeService) CreateTemplate(ctx context.Context, input CreateChallengeInput) (*domain.ChallengeTemplate, error) {
	if input.Title == "" {
		return nil, aggregates.ValidationError("title is required")
	}
	if !input.Type.Valid() {
		return nil, aggregates.ValidationError("invalid challenge type")
	}
	if !input.Category.Valid() {
		return nil, aggregates.ValidationError("invalid challenge category")
	}
	if input.RequiredCount <= 0 {
		return nil, aggregates.ValidationError("requiredCount must be positive")
	}
	if input.PointReward <= 0 {
		return nil, aggregates.ValidationError("pointReward must be positive")
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = domain.DifficultyBeginner
	}

	row := &domain.ChallengeTemplate{
		Title:         input.Title,
		Description:   input.Description,
		Type:          input.Type,
		Category:      input.Category,
		Difficulty:    difficulty,
		RequiredCount: input.RequiredCount,
		PointReward:   input.PointReward,
		BonusReward:   input.BonusReward,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsActive:      true,
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.templates.Create(dbc, []*domain.ChallengeTemplate{row}); err != nil {
		return nil, aggregates.MapError("challenge.create", err)
	}
	return row, nil
}

func (s *challengeService) SetTemplateActive(ctx context.Context, id uuid.UUID, active bool) error {
	dbc := dbctx.Context{Ctx: ctx}
	tpl, err := s.templates.GetByID(dbc, id)
	if err != nil {
		return aggregates.MapError("challenge.setactive", err)
	}
	if tpl == nil {
		return aggregates.NotFoundError("challenge template not found")
	}
	return aggregates.MapError("challenge.setactive", s.templates.SetActive(dbc, id, active))
}

func (s *challengeService) ListTemplates(ctx context.Context, onlyActive bool, challengeType *domain.ChallengeType) ([]*domain.ChallengeTemplate, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.templates.List(dbc, onlyActive, challengeType)
	if err != nil {
		return nil, aggregates.MapError("challenge.list", err)
	}
	return rows, nil
}

func (s *challengeService) Enroll(ctx context.Context, userID, challengeID uuid.UUID) (*domain.ChallengeEnrollment, error) {
	if userID == uuid.Nil || challengeID == uuid.Nil {
		return nil, aggregates.ValidationError("userID and challengeID are required")
	}

	var enrollment *domain.ChallengeEnrollment
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		tpl, err := s.templates.GetByID(dbc, challengeID)
		if err != nil {
			return aggregates.MapError("challenge.enroll", err)
		}
		if tpl == nil {
			return aggregates.NotFoundError("challenge template not found")
		}
		if !tpl.IsActive {
			return aggregates.InvalidStateError("challenge is not active")
		}
		if tpl.EndDate != nil && tpl.EndDate.Before(s.now()) {
			return aggregates.InvalidStateError("challenge has ended")
		}

		existing, err := s.enrollments.GetByUserAndChallenge(dbc, userID, challengeID)
		if err != nil {
			return aggregates.MapError("challenge.enroll", err)
		}
		if existing != nil {
			return aggregates.ConflictError("already enrolled in challenge")
		}

		acct, err := s.accounts.GetOrCreate(dbc, userID)
		if err != nil {
			return aggregates.MapError("challenge.enroll", err)
		}

		enrollment = &domain.ChallengeEnrollment{
			UserID:      userID,
			ChallengeID: challengeID,
			AccountID:   acct.ID,
			Status:      domain.EnrollmentActive,
		}
		// The unique (user_id, challenge_id) index backs the existence
		// check under concurrency; MapError turns 23505 into a conflict.
		if _, err := s.enrollments.Create(dbc, []*domain.ChallengeEnrollment{enrollment}); err != nil {
			return aggregates.MapError("challenge.enroll", err)
		}
		enrollment.Challenge = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *challengeService) UpdateProgress(ctx context.Context, userID, challengeID uuid.UUID, incrementBy int) (*ProgressResult, error) {
	if incrementBy <= 0 {
		return nil, aggregates.ValidationError("incrementBy must be positive")
	}

	var (
		result *ProgressResult
		won    bool
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		enrollment, err := s.enrollments.GetByUserAndChallenge(dbc, userID, challengeID)
		if err != nil {
			return aggregates.MapError("challenge.progress", err)
		}
		if enrollment == nil {
			return aggregates.NotFoundError("enrollment not found")
		}
		if enrollment.Status != domain.EnrollmentActive {
			return aggregates.InvalidStateError("enrollment is " + string(enrollment.Status))
		}
		tpl := enrollment.Challenge
		if tpl == nil {
			return aggregates.NotFoundError("challenge template not found")
		}

		ok, err := s.enrollments.IncrementProgress(dbc, enrollment.ID, incrementBy)
		if err != nil {
			return aggregates.MapError("challenge.progress", err)
		}
		if !ok {
			// Raced with the expiry sweep or a completing caller.
			return aggregates.InvalidStateError("enrollment is no longer active")
		}

		updated, err := s.enrollments.GetByID(dbc, enrollment.ID)
		if err != nil {
			return aggregates.MapError("challenge.progress", err)
		}
		result = &ProgressResult{Enrollment: updated}
		if updated.Status != domain.EnrollmentActive || updated.Progress < tpl.RequiredCount {
			return nil
		}

		reward := tpl.PointReward
		if tpl.BonusReward != nil && tpl.EndDate != nil &&
			tpl.EndDate.Sub(s.now()) > earlyCompletionWindow {
			reward += *tpl.BonusReward
		}

		completedAt := s.now().UTC()
		won, err = s.enrollments.CompleteIfActive(dbc, enrollment.ID, reward, completedAt)
		if err != nil {
			return aggregates.MapError("challenge.progress", err)
		}
		if !won {
			// Another caller completed it first; the award is theirs.
			return nil
		}

		if _, err := s.ledger.AwardInTx(dbc, userID, reward, domain.ReasonChallengeComplete,
			fmt.Sprintf("Completed challenge: %s", tpl.Title),
			map[string]any{"challenge_id": challengeID.String()}); err != nil {
			return err
		}

		updated.Status = domain.EnrollmentCompleted
		updated.PointsEarned = reward
		updated.CompletedAt = &completedAt
		result = &ProgressResult{Enrollment: updated, Completed: true, PointsEarned: reward}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if won {
		s.notifier.EnrollmentCompleted(userID, challengeID, result.PointsEarned)
	}
	return result, nil
}

// TrackActivity applies one unit of progress to every ACTIVE enrollment
// whose challenge category matches the activity. Enrollments that race to
// a terminal state mid-sweep are skipped, not errors.
func (s *challengeService) TrackActivity(ctx context.Context, userID uuid.UUID, activityType domain.ActivityType, metadata map[string]any) ([]*ProgressResult, error) {
	if !activityType.Valid() {
		return nil, aggregates.ValidationError("unknown activity type")
	}

	dbc := dbctx.Context{Ctx: ctx}
	active, err := s.enrollments.ListActiveByUser(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("challenge.track", err)
	}

	var results []*ProgressResult
	for _, enrollment := range active {
		tpl := enrollment.Challenge
		if tpl == nil || !tpl.Category.MatchesActivity(activityType, metadata) {
			continue
		}
		res, err := s.UpdateProgress(ctx, userID, enrollment.ChallengeID, 1)
		if err != nil {
			if aggregates.Tagged(err) {
				s.log.Debug("skipping enrollment during activity tracking",
					"enrollment_id", enrollment.ID, "error", err)
				continue
			}
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *challengeService) ListUserEnrollments(ctx context.Context, userID uuid.UUID, status *domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.enrollments.ListByUser(dbc, userID, status)
	if err != nil {
		return nil, aggregates.MapError("challenge.enrollments", err)
	}
	return rows, nil
}

// ExpireSweep moves every ACTIVE enrollment of an ended challenge to
// EXPIRED. Safe to re-run; only still-ACTIVE rows are touched.
func (s *challengeService) ExpireSweep(ctx context.Context) (int64, error) {
	var expired int64
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		expired, err = s.enrollments.ExpireEnded(dbc, s.now())
		return aggregates.MapError("challenge.sweep", err)
	})
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("expired enrollments", "count", expired)
	}
	return expired, nil
}

func (s *challengeService) GetChallengeLeaderboard(ctx context.Context, challengeID uuid.UUID, limit int) ([]ChallengeLeaderboardEntry, error) {
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.enrollments.ListCompletedByChallenge(dbc, challengeID, limit)
	if err != nil {
		return nil, aggregates.MapError("challenge.leaderboard", err)
	}
	entries := make([]ChallengeLeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, ChallengeLeaderboardEntry{
			Rank:         i + 1,
			UserID:       row.UserID,
			PointsEarned: row.PointsEarned,
			CompletedAt:  row.CompletedAt,
		})
	}
	return entries, nil
}

func (s *challengeService) GetChallengeStats(ctx context.Context, challengeID uuid.UUID) (*ChallengeStats, error) {
	dbc := dbctx.Context{Ctx: ctx}
	tpl, err := s.templates.GetByID(dbc, challengeID)
	if err != nil {
		return nil, aggregates.MapError("challenge.stats", err)
	}
	if tpl == nil {
		return nil, aggregates.NotFoundError("challenge template not found")
	}
	counts, err := s.enrollments.CountByStatus(dbc, challengeID)
	if err != nil {
		return nil, aggregates.MapError("challenge.stats", err)
	}
	stats := &ChallengeStats{
		Active:    counts[domain.EnrollmentActive],
		Completed: counts[domain.EnrollmentCompleted],
		Expired:   counts[domain.EnrollmentExpired],
	}
	stats.TotalEnrolled = stats.Active + stats.Completed + stats.Expired
	if stats.TotalEnrolled > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalEnrolled) * 100
	}
	return stats, nil
}
