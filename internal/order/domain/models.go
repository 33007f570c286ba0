package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the order lifecycle state. Transitions are monotonic: a
// paid order never returns to pending, failed, or expired.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further payment-state transition applies.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// RefundStatus tracks the refund workflow on the order itself.
type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusRequested RefundStatus = "requested"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusCompleted RefundStatus = "completed"
)

// Order is a buyer's purchase intent for one pricing tier of one
// website. TotalAmount = ItemPrice + PlatformFee, fixed at creation.
type Order struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderNumber    string            `gorm:"type:text;not null;uniqueIndex" json:"order_number"`
	BuyerID        snowflake.ID      `gorm:"not null;index" json:"buyer_id"`
	WebsiteID      snowflake.ID      `gorm:"not null;index" json:"website_id"`
	PricingTierID  *snowflake.ID     `json:"pricing_tier_id,omitempty"`
	CreatorID      snowflake.ID      `gorm:"not null;index" json:"creator_id"`
	ItemName       string            `gorm:"type:text;not null" json:"item_name"`
	ItemPrice      int64             `gorm:"not null" json:"item_price"`
	PlatformFee    int64             `gorm:"not null" json:"platform_fee"`
	TotalAmount    int64             `gorm:"not null" json:"total_amount"`
	Currency       string            `gorm:"type:text;not null" json:"currency"`
	Status         Status            `gorm:"type:text;not null" json:"status"`
	RefundStatus   RefundStatus      `gorm:"type:text;not null;default:'none'" json:"refund_status"`
	RefundedAmount int64             `gorm:"not null;default:0" json:"refunded_amount"`
	ExpiresAt      time.Time         `gorm:"not null" json:"expires_at"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	Notes          string            `gorm:"type:text" json:"notes,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// RemainingRefundable is the amount still eligible for refund.
func (o Order) RemainingRefundable() int64 {
	remaining := o.TotalAmount - o.RefundedAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}
