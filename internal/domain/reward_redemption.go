package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardRedemption is created only after the point debit succeeded. Status
// is one-way (PENDING -> APPROVED -> DELIVERED) except the user-initiated
// PENDING -> CANCELLED transition, which refunds points and stock.
type RewardRedemption struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	RewardID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"reward_id"`
	Reward          *RewardItem      `gorm:"constraint:OnDelete:CASCADE;foreignKey:RewardID;references:ID" json:"reward,omitempty"`
	AccountID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"account_id"`
	PointsSpent     int              `gorm:"not null" json:"points_spent"`
	Status          RedemptionStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	CouponCode      *string          `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	ShippingAddress *string          `gorm:"column:shipping_address" json:"shipping_address,omitempty"`
	TrackingNumber  *string          `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	Notes           string           `gorm:"not null;default:''" json:"notes"`
	RedeemedAt      time.Time        `gorm:"not null;default:now()" json:"redeemed_at"`
	CreatedAt       time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (RewardRedemption) TableName() string { return "reward_redemptions" }
