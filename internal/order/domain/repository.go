package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Order, error)
	FindPendingByBuyerAndWebsite(ctx context.Context, db *gorm.DB, buyerID, websiteID snowflake.ID, now time.Time) (*Order, error)
	ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]Order, error)
	ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]Order, error)

	// TransitionStatus performs a guarded compare-and-swap from one
	// status to another and reports whether the row moved. This is the
	// serialization primitive for all order state changes.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, at time.Time) (bool, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error)

	SetRefundStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status RefundStatus, at time.Time) error
	// ApplyRefund adds amount to refunded_amount, guarded so the total
	// can never exceed total_amount, and flips the order to refunded
	// when fully repaid.
	ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, at time.Time) (bool, error)
}
