package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

type RefundRequest struct {
	ID           snowflake.ID  `json:"id,string" gorm:"primaryKey"`
	RefundNumber string        `json:"refund_number" gorm:"uniqueIndex"`
	OrderID      snowflake.ID  `json:"order_id,string" gorm:"index"`
	RequestedBy  snowflake.ID  `json:"requested_by,string"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Reason       string        `json:"reason"`
	Status       Status        `json:"status" gorm:"index"`
	DecidedBy    *snowflake.ID `json:"decided_by,string,omitempty"`
	DecidedAt    *time.Time    `json:"decided_at,omitempty"`
	DecisionNote string        `json:"decision_note,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (RefundRequest) TableName() string {
	return "refund_requests"
}
