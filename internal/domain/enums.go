package domain

// TransactionReason tags every ledger entry with the activity that caused it.
type TransactionReason string

const (
	ReasonDailyCheckin        TransactionReason = "DAILY_CHECKIN"
	ReasonSessionComplete     TransactionReason = "SESSION_COMPLETE"
	ReasonJournalEntry        TransactionReason = "JOURNAL_ENTRY"
	ReasonMoodCheckin         TransactionReason = "MOOD_CHECKIN"
	ReasonGratitudeEntry      TransactionReason = "GRATITUDE_ENTRY"
	ReasonCommunityPost       TransactionReason = "COMMUNITY_POST"
	ReasonCommunityComment    TransactionReason = "COMMUNITY_COMMENT"
	ReasonPostLike            TransactionReason = "POST_LIKE"
	ReasonChallengeComplete   TransactionReason = "CHALLENGE_COMPLETE"
	ReasonRewardRedemption    TransactionReason = "REWARD_REDEMPTION"
	ReasonRedemptionCancelled TransactionReason = "REDEMPTION_CANCELLED"
	ReasonStreakFreeze        TransactionReason = "STREAK_FREEZE"
	ReasonAdminAdjustment     TransactionReason = "ADMIN_ADJUSTMENT"
)

// ActivityType identifies inbound activity events from the rest of the app.
type ActivityType string

const (
	ActivitySessionComplete  ActivityType = "SESSION_COMPLETE"
	ActivityJournalEntry     ActivityType = "JOURNAL_ENTRY"
	ActivityMoodCheckin      ActivityType = "MOOD_CHECKIN"
	ActivityGratitudeEntry   ActivityType = "GRATITUDE_ENTRY"
	ActivityCommunityPost    ActivityType = "COMMUNITY_POST"
	ActivityCommunityComment ActivityType = "COMMUNITY_COMMENT"
	ActivityPostLike         ActivityType = "POST_LIKE"
	ActivityDailyCheckin     ActivityType = "DAILY_CHECKIN"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivitySessionComplete, ActivityJournalEntry, ActivityMoodCheckin,
		ActivityGratitudeEntry, ActivityCommunityPost, ActivityCommunityComment,
		ActivityPostLike, ActivityDailyCheckin:
		return true
	}
	return false
}

type ChallengeType string

const (
	ChallengeDaily     ChallengeType = "DAILY"
	ChallengeWeekly    ChallengeType = "WEEKLY"
	ChallengeMonthly   ChallengeType = "MONTHLY"
	ChallengeMilestone ChallengeType = "MILESTONE"
)

func (t ChallengeType) Valid() bool {
	switch t {
	case ChallengeDaily, ChallengeWeekly, ChallengeMonthly, ChallengeMilestone:
		return true
	}
	return false
}

type ChallengeCategory string

const (
	CategoryMeditation ChallengeCategory = "MEDITATION"
	CategoryJournaling ChallengeCategory = "JOURNALING"
	CategorySocial     ChallengeCategory = "SOCIAL"
	CategoryWellness   ChallengeCategory = "WELLNESS"
	CategoryStreaks    ChallengeCategory = "STREAKS"
)

func (c ChallengeCategory) Valid() bool {
	switch c {
	case CategoryMeditation, CategoryJournaling, CategorySocial, CategoryWellness, CategoryStreaks:
		return true
	}
	return false
}

type ChallengeDifficulty string

const (
	DifficultyBeginner     ChallengeDifficulty = "BEGINNER"
	DifficultyIntermediate ChallengeDifficulty = "INTERMEDIATE"
	DifficultyAdvanced     ChallengeDifficulty = "ADVANCED"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentExpired   EnrollmentStatus = "EXPIRED"
)

// Terminal reports whether no further transition may leave the status.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentCompleted || s == EnrollmentExpired
}

type RewardCategory string

const (
	RewardDiscountCoupon RewardCategory = "DISCOUNT_COUPON"
	RewardMerchandise    RewardCategory = "MERCHANDISE"
	RewardExperience     RewardCategory = "EXPERIENCE"
	RewardDigitalContent RewardCategory = "DIGITAL_CONTENT"
	RewardDonation       RewardCategory = "DONATION"
)

func (c RewardCategory) Valid() bool {
	switch c {
	case RewardDiscountCoupon, RewardMerchandise, RewardExperience, RewardDigitalContent, RewardDonation:
		return true
	}
	return false
}

type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "PENDING"
	RedemptionApproved  RedemptionStatus = "APPROVED"
	RedemptionDelivered RedemptionStatus = "DELIVERED"
	RedemptionCancelled RedemptionStatus = "CANCELLED"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionDelivered, RedemptionCancelled:
		return true
	}
	return false
}

// MatchesActivity reports whether an activity event counts toward a
// challenge of this category. MEDITATION only counts completed sessions
// whose metadata marks them as meditation sessions.
func (c ChallengeCategory) MatchesActivity(a ActivityType, metadata map[string]any) bool {
	switch c {
	case CategoryMeditation:
		if a != ActivitySessionComplete {
			return false
		}
		sessionType, _ := metadata["sessionType"].(string)
		return sessionType == "MEDITATION"
	case CategoryJournaling:
		return a == ActivityJournalEntry
	case CategorySocial:
		return a == ActivityCommunityPost || a == ActivityCommunityComment || a == ActivityPostLike
	case CategoryWellness:
		return a == ActivitySessionComplete || a == ActivityMoodCheckin || a == ActivityGratitudeEntry
	case CategoryStreaks:
		return a == ActivityDailyCheckin
	}
	return false
}
