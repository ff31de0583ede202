package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/stillpath/stillpath-backend/internal/clients/redis"
	"github.com/stillpath/stillpath-backend/internal/platform/logger"
	"github.com/stillpath/stillpath-backend/internal/realtime"
)

// ProgressionNotifier emits an observable signal after every successful
// mutation. Emission is best-effort: a publish failure is logged and never
// fails the originating request.
type ProgressionNotifier interface {
	BalanceChanged(userID uuid.UUID, availablePoints, totalPoints int)
	StreakAdvanced(userID uuid.UUID, streak, pointsEarned int)
	EnrollmentCompleted(userID, challengeID uuid.UUID, pointsEarned int)
	RedemptionCreated(userID, redemptionID uuid.UUID, pointsSpent int)
	RedemptionCancelled(userID, redemptionID uuid.UUID, pointsRefunded int)
}

type busNotifier struct {
	log *logger.Logger
	bus redis.EventBus
}

func NewBusNotifier(log *logger.Logger, bus redis.EventBus) ProgressionNotifier {
	return &busNotifier{log: log.With("service", "ProgressionNotifier"), bus: bus}
}

func (n *busNotifier) emit(event string, userID uuid.UUID, data map[string]any) {
	if n == nil || n.bus == nil || userID == uuid.Nil {
		return
	}
	msg := realtime.Message{
		Channel: userID.String(),
		Event:   event,
		Data:    data,
	}
	if err := n.bus.Publish(context.Background(), msg); err != nil {
		n.log.Warn("failed to publish progression event", "event", event, "user_id", userID, "error", err)
	}
}

func (n *busNotifier) BalanceChanged(userID uuid.UUID, availablePoints, totalPoints int) {
	n.emit(realtime.EventBalanceChanged, userID, map[string]any{
		"available_points": availablePoints,
		"total_points":     totalPoints,
	})
}

func (n *busNotifier) StreakAdvanced(userID uuid.UUID, streak, pointsEarned int) {
	n.emit(realtime.EventStreakAdvanced, userID, map[string]any{
		"streak":        streak,
		"points_earned": pointsEarned,
	})
}

func (n *busNotifier) EnrollmentCompleted(userID, challengeID uuid.UUID, pointsEarned int) {
	n.emit(realtime.EventEnrollmentCompleted, userID, map[string]any{
		"challenge_id":  challengeID.String(),
		"points_earned": pointsEarned,
	})
}

func (n *busNotifier) RedemptionCreated(userID, redemptionID uuid.UUID, pointsSpent int) {
	n.emit(realtime.EventRedemptionCreated, userID, map[string]any{
		"redemption_id": redemptionID.String(),
		"points_spent":  pointsSpent,
	})
}

func (n *busNotifier) RedemptionCancelled(userID, redemptionID uuid.UUID, pointsRefunded int) {
	n.emit(realtime.EventRedemptionCancelled, userID, map[string]any{
		"redemption_id":   redemptionID.String(),
		"points_refunded": pointsRefunded,
	})
}

// NopNotifier keeps the engine runnable without a configured event bus.
type NopNotifier struct{}

func (NopNotifier) BalanceChanged(uuid.UUID, int, int)           {}
func (NopNotifier) StreakAdvanced(uuid.UUID, int, int)           {}
func (NopNotifier) EnrollmentCompleted(uuid.UUID, uuid.UUID, int) {}
func (NopNotifier) RedemptionCreated(uuid.UUID, uuid.UUID, int)   {}
func (NopNotifier) RedemptionCancelled(uuid.UUID, uuid.UUID, int) {}
