package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Invoice is the financial snapshot of a paid order, generated exactly
// once per order. Immutable after issuance except for status.
type Invoice struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	InvoiceNumber string         `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	OrderID       snowflake.ID   `gorm:"not null;uniqueIndex" json:"order_id"`
	BuyerID       snowflake.ID   `gorm:"not null;index" json:"buyer_id"`
	CreatorID     snowflake.ID   `gorm:"not null;index" json:"creator_id"`
	LineItems     datatypes.JSON `gorm:"type:jsonb;not null" json:"line_items"`
	Subtotal      int64          `gorm:"not null" json:"subtotal"`
	PlatformFee   int64          `gorm:"not null" json:"platform_fee"`
	Total         int64          `gorm:"not null" json:"total"`
	Currency      string         `gorm:"type:text;not null" json:"currency"`
	Status        Status         `gorm:"type:text;not null" json:"status"`
	IssuedAt      time.Time      `gorm:"not null" json:"issued_at"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Invoice) TableName() string { return "invoices" }

// LineItem is one invoiced position, serialized into LineItems.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Amount      int64  `json:"amount"`
}
