package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardItem is a redeemable catalog entry. StockQuantity is nullable at
// the storage layer; services read it through Stock so the unlimited case
// is an explicit branch rather than a nil check.
type RewardItem struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title                  string         `gorm:"not null" json:"title"`
	Description            string         `gorm:"not null;default:''" json:"description"`
	Category               RewardCategory `gorm:"type:varchar(32);not null;index" json:"category"`
	Brand                  string         `gorm:"not null;default:''" json:"brand"`
	PointCost              int            `gorm:"not null" json:"point_cost"`
	StockQuantity          *int           `gorm:"column:stock_quantity" json:"stock_quantity,omitempty"`
	RedemptionLimitPerUser *int           `gorm:"column:redemption_limit_per_user" json:"redemption_limit_per_user,omitempty"`
	ExpiryDate             *time.Time     `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	IsActive               bool           `gorm:"not null;default:true;index" json:"is_active"`
	IsFeatured             bool           `gorm:"not null;default:false;index" json:"is_featured"`
	CreatedAt              time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RewardItem) TableName() string { return "reward_items" }

// Stock is the typed view over a nullable stock column.
type Stock struct {
	quantity *int
}

func StockOf(quantity *int) Stock { return Stock{quantity: quantity} }

func (s Stock) Unlimited() bool { return s.quantity == nil }

func (s Stock) Remaining() int {
	if s.quantity == nil {
		return 0
	}
	return *s.quantity
}

func (s Stock) Depleted() bool {
	return s.quantity != nil && *s.quantity <= 0
}
