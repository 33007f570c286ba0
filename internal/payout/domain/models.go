package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BankAccount is a creator's registered destination for payouts.
type BankAccount struct {
	ID            snowflake.ID `json:"id,string" gorm:"primaryKey"`
	CreatorID     snowflake.ID `json:"creator_id,string" gorm:"index"`
	BankCode      string       `json:"bank_code"`
	BankName      string       `json:"bank_name"`
	AccountNumber string       `json:"account_number"`
	AccountName   string       `json:"account_name"`
	IsDefault     bool         `json:"is_default"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}

// CreatorPayout snapshots the bank destination at request time so a
// later account edit never redirects money in flight.
type CreatorPayout struct {
	ID           snowflake.ID `json:"id,string" gorm:"primaryKey"`
	PayoutNumber string       `json:"payout_number" gorm:"uniqueIndex"`
	CreatorID    snowflake.ID `json:"creator_id,string" gorm:"index"`
	GrossAmount  int64        `json:"gross_amount"`
	FeeAmount    int64        `json:"fee_amount"`
	NetAmount    int64        `json:"net_amount"`
	Currency     string       `json:"currency"`
	Status       Status       `json:"status" gorm:"index"`

	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`

	Notes       string        `json:"notes,omitempty"`
	ProcessedBy *snowflake.ID `json:"processed_by,string,omitempty"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (CreatorPayout) TableName() string {
	return "creator_payouts"
}
