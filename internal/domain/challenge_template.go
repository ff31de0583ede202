package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeTemplate is immutable after creation except for IsActive.
type ChallengeTemplate struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title         string              `gorm:"not null" json:"title"`
	Description   string              `gorm:"not null;default:''" json:"description"`
	Type          ChallengeType       `gorm:"type:varchar(16);not null;index" json:"type"`
	Category      ChallengeCategory   `gorm:"type:varchar(16);not null;index" json:"category"`
	Difficulty    ChallengeDifficulty `gorm:"type:varchar(16);not null;default:'BEGINNER'" json:"difficulty"`
	RequiredCount int                 `gorm:"not null" json:"required_count"`
	PointReward   int                 `gorm:"not null" json:"point_reward"`
	BonusReward   *int                `gorm:"column:bonus_reward" json:"bonus_reward,omitempty"`
	StartDate     *time.Time          `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate       *time.Time          `gorm:"column:end_date;index" json:"end_date,omitempty"`
	IsActive      bool                `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time           `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChallengeTemplate) TableName() string { return "challenge_templates" }
