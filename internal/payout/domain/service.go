package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound            = errors.New("payout_not_found")
	ErrInvalidAmount       = errors.New("invalid_payout_amount")
	ErrInsufficientBalance = errors.New("insufficient_withdrawable_balance")
	ErrNoBankAccount       = errors.New("bank_account_required")
	ErrBankAccountNotFound = errors.New("bank_account_not_found")
	ErrAlreadyProcessed    = errors.New("payout_already_processed")
	ErrInvalidDecision     = errors.New("invalid_payout_decision")
)

// FeePolicy computes the platform's cut of a payout from its gross amount.
type FeePolicy interface {
	PayoutFee(grossAmount int64) int64
}

// PercentFee charges Bps basis points of the gross, never less than Min.
type PercentFee struct {
	Bps int64
	Min int64
}

func (f PercentFee) PayoutFee(grossAmount int64) int64 {
	fee := grossAmount * f.Bps / 10000
	if fee < f.Min {
		fee = f.Min
	}
	return fee
}

type RequestPayoutInput struct {
	Amount        int64        `json:"amount"`
	BankAccountID snowflake.ID `json:"bank_account_id,string"`
	Notes         string       `json:"notes"`
}

type ProcessDecision string

const (
	DecisionApprove ProcessDecision = "approve"
	DecisionReject  ProcessDecision = "reject"
)

type ProcessPayoutInput struct {
	Decision ProcessDecision `json:"decision"`
	Notes    string          `json:"notes"`
}

type AddBankAccountInput struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	IsDefault     bool   `json:"is_default"`
}

type Service interface {
	AddBankAccount(ctx context.Context, in AddBankAccountInput) (*BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]BankAccount, error)

	Request(ctx context.Context, in RequestPayoutInput) (*CreatorPayout, error)
	Process(ctx context.Context, payoutID snowflake.ID, in ProcessPayoutInput) (*CreatorPayout, error)
	GetByID(ctx context.Context, payoutID snowflake.ID) (*CreatorPayout, error)
	ListMine(ctx context.Context) ([]CreatorPayout, error)
	ListAll(ctx context.Context, status Status) ([]CreatorPayout, error)
}
