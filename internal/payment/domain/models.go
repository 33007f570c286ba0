package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

func (s Status) Terminal() bool {
	return s != StatusPending
}

// Transaction is one checkout attempt at a gateway. MerchantRef is the
// reference we hand the gateway and the key its callbacks come back on.
type Transaction struct {
	ID              snowflake.ID   `json:"id,string" gorm:"primaryKey"`
	MerchantRef     string         `json:"merchant_ref" gorm:"type:text;not null;uniqueIndex"`
	OrderID         snowflake.ID   `json:"order_id,string" gorm:"not null;index"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderRef     string         `json:"provider_ref" gorm:"type:text"`
	Method          string         `json:"method" gorm:"type:text"`
	Amount          int64          `json:"amount" gorm:"not null"`
	Currency        string         `json:"currency" gorm:"type:text;not null"`
	Status          Status         `json:"status" gorm:"type:text;not null;index"`
	PaymentURL      string         `json:"payment_url" gorm:"type:text"`
	GatewayResponse datatypes.JSON `json:"gateway_response,omitempty" gorm:"type:jsonb"`
	PaidAt          *time.Time     `json:"paid_at,omitempty"`
	ExpiresAt       time.Time      `json:"expires_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Transaction) TableName() string { return "payment_transactions" }
