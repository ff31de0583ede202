package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StreakRecord tracks one run of consecutive daily check-ins. At most one
// record per user is open (is_broken = false); opening a new run marks the
// previous one broken first.
type StreakRecord struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID                `gorm:"type:uuid;not null;index" json:"user_id"`
	StreakCount        int                      `gorm:"not null;default:0" json:"streak_count"`
	StreakStartDate    time.Time                `gorm:"not null" json:"streak_start_date"`
	LastCheckInDate    time.Time                `gorm:"not null" json:"last_check_in_date"`
	BonusPointsAccrued int                      `gorm:"not null;default:0" json:"bonus_points_accrued"`
	MilestonesAchieved datatypes.JSONSlice[int] `gorm:"type:jsonb" json:"milestones_achieved"`
	IsBroken           bool                     `gorm:"not null;default:false;index" json:"is_broken"`
	CreatedAt          time.Time                `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time                `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt           `gorm:"index" json:"deleted_at,omitempty"`
}

func (StreakRecord) TableName() string { return "streak_records" }
