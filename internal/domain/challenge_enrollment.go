package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeEnrollment is a user's participation in one challenge template.
// Status moves ACTIVE -> COMPLETED or ACTIVE -> EXPIRED, never out of a
// terminal state. Progress only increases while ACTIVE.
type ChallengeEnrollment struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_challenge,unique" json:"user_id"`
	ChallengeID uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_challenge,unique" json:"challenge_id"`
	Challenge   *ChallengeTemplate `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChallengeID;references:ID" json:"challenge,omitempty"`
	AccountID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"account_id"`
	Status      EnrollmentStatus   `gorm:"type:varchar(16);not null;default:'ACTIVE';index" json:"status"`
	Progress    int                `gorm:"not null;default:0" json:"progress"`
	PointsEarned int               `gorm:"not null;default:0" json:"points_earned"`
	CompletedAt *time.Time         `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChallengeEnrollment) TableName() string { return "challenge_enrollments" }
