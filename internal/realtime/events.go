package realtime

// Message is the envelope published on the progression event bus. Channel
// is the owning user's id so downstream consumers (cache invalidation,
// notifications) can fan out per user.
type Message struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Data    map[string]any `json:"data,omitempty"`
}

const (
	EventBalanceChanged      = "progression.balance_changed"
	EventStreakAdvanced      = "progression.streak_advanced"
	EventEnrollmentCompleted = "progression.enrollment_completed"
	EventRedemptionCreated   = "progression.redemption_created"
	EventRedemptionCancelled = "progression.redemption_cancelled"
)
