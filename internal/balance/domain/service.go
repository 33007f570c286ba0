package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger maintains creator running balances. Mutations take the
// caller's transaction handle: the reconciler credits, the payout
// workflow moves funds to withdrawn, the refund workflow debits.
type Ledger interface {
	GetBalance(ctx context.Context, creatorID snowflake.ID) (CreatorBalance, error)
	// Withdrawable is the available balance minus the gross amount of
	// payouts still pending for the creator.
	Withdrawable(ctx context.Context, creatorID snowflake.ID) (int64, error)

	Credit(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error
	DebitForRefund(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error
	CompleteWithdrawal(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error

	// Recalculate recomputes both totals from paid orders, completed
	// refund debits, and completed payouts, corrects the stored row,
	// and returns the recomputed balance. Under normal operation it
	// must equal the running totals.
	Recalculate(ctx context.Context, creatorID snowflake.ID) (CreatorBalance, error)
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (*CreatorBalance, error)
	AddAvailable(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) error
	SubtractAvailable(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) (bool, error)
	MoveToWithdrawn(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) (bool, error)
	Put(ctx context.Context, db *gorm.DB, balance *CreatorBalance) error

	SumPendingPayouts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error)
	SumEarnings(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error)
	SumCompletedPayouts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error)
}

var (
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInsufficientBalance = errors.New("insufficient_balance")
)
