package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/data/aggregates"
	"github.com/stillpath/stillpath-backend/internal/domain"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
)

// activityAwards holds the base point value per inbound activity, keyed
// alongside the ledger reason it books under. DAILY_CHECKIN is absent on
// purpose: check-ins go through StreakService so streak math applies.
var activityAwards = map[domain.ActivityType]struct {
	Points int
	Reason domain.TransactionReason
}{
	domain.ActivitySessionComplete:  {25, domain.ReasonSessionComplete},
	domain.ActivityJournalEntry:     {15, domain.ReasonJournalEntry},
	domain.ActivityMoodCheckin:      {5, domain.ReasonMoodCheckin},
	domain.ActivityGratitudeEntry:   {10, domain.ReasonGratitudeEntry},
	domain.ActivityCommunityPost:    {10, domain.ReasonCommunityPost},
	domain.ActivityCommunityComment: {5, domain.ReasonCommunityComment},
	domain.ActivityPostLike:         {2, domain.ReasonPostLike},
}

var activityDescriptions = map[domain.ActivityType]string{
	domain.ActivitySessionComplete:  "Completed a session",
	domain.ActivityJournalEntry:     "Wrote a journal entry",
	domain.ActivityMoodCheckin:      "Logged a mood check-in",
	domain.ActivityGratitudeEntry:   "Added a gratitude entry",
	domain.ActivityCommunityPost:    "Shared a community post",
	domain.ActivityCommunityComment: "Commented on a post",
	domain.ActivityPostLike:         "Liked a post",
}

type ActivityResult struct {
	PointsEarned        int               `json:"points_earned"`
	Balance             *AccountSummary   `json:"balance"`
	ChallengesProgressed []*ProgressResult `json:"challenges_progressed,omitempty"`
}

// ActivityService is the intake for activity events from the rest of the
// app: one call books the base award and advances matching challenges.
type ActivityService interface {
	Record(ctx context.Context, userID uuid.UUID, activityType domain.ActivityType, metadata map[string]any) (*ActivityResult, error)
}

type activityService struct {
	log        *logger.Logger
	ledger     LedgerService
	challenges ChallengeService
}

func NewActivityService(log *logger.Logger, ledger LedgerService, challenges ChallengeService) ActivityService {
	return &activityService{
		log:        log.With("service", "ActivityService"),
		ledger:     ledger,
		challenges: challenges,
	}
}

func (s *activityService) Record(ctx context.Context, userID uuid.UUID, activityType domain.ActivityType, metadata map[string]any) (*ActivityResult, error) {
	if userID == uuid.Nil {
		return nil, aggregates.ValidationError("userID is required")
	}
	if activityType == domain.ActivityDailyCheckin {
		return nil, aggregates.ValidationError("daily check-ins go through the streak endpoint")
	}
	award, ok := activityAwards[activityType]
	if !ok {
		return nil, aggregates.ValidationError("unknown activity type")
	}

	summary, err := s.ledger.Award(ctx, userID, award.Points, award.Reason,
		activityDescriptions[activityType], metadata)
	if err != nil {
		return nil, err
	}

	progressed, err := s.challenges.TrackActivity(ctx, userID, activityType, metadata)
	if err != nil {
		// The base award already committed; surface progress failure
		// without losing it.
		s.log.Warn("activity recorded but challenge tracking failed",
			"user_id", userID, "activity", activityType, "error", err)
		return &ActivityResult{PointsEarned: award.Points, Balance: summary}, nil
	}

	result := &ActivityResult{
		PointsEarned:        award.Points,
		Balance:             summary,
		ChallengesProgressed: progressed,
	}
	for _, p := range progressed {
		if p.Completed {
			result.PointsEarned += p.PointsEarned
		}
	}
	if len(progressed) > 0 {
		// Challenge completions may have moved the balance again.
		refreshed, err := s.ledger.GetSummary(ctx, userID)
		if err == nil {
			result.Balance = refreshed
		}
	}
	return result, nil
}
