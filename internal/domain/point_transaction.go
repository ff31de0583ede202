package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PointTransaction is an immutable signed record of one balance change.
// Rows are only ever created alongside the account mutation they describe.
type PointTransaction struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"account_id"`
	Account     *Account          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	PointsDelta int               `gorm:"not null" json:"points_delta"`
	Reason      TransactionReason `gorm:"type:varchar(32);not null;index" json:"reason"`
	Description string            `gorm:"not null;default:''" json:"description"`
	Metadata    datatypes.JSON    `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:now();index" json:"created_at"`
}

func (PointTransaction) TableName() string { return "point_transactions" }
