package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a user's point balance plus cumulative counters. The ledger
// invariant is available_points = lifetime_earned - lifetime_spent >= 0,
// with total_points mirroring lifetime_earned.
type Account struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TotalPoints     int            `gorm:"not null;default:0" json:"total_points"`
	AvailablePoints int            `gorm:"not null;default:0" json:"available_points"`
	LifetimeEarned  int            `gorm:"not null;default:0" json:"lifetime_earned"`
	LifetimeSpent   int            `gorm:"not null;default:0" json:"lifetime_spent"`
	CurrentStreak   int            `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak   int            `gorm:"not null;default:0" json:"longest_streak"`
	LastCheckIn     *time.Time     `gorm:"column:last_check_in" json:"last_check_in,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Account) TableName() string { return "accounts" }
