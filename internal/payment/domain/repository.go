package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	FindByMerchantRef(ctx context.Context, db *gorm.DB, merchantRef string) (*Transaction, error)
	FindPendingByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) (*Transaction, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]Transaction, error)

	// Settle is the idempotency gate for callbacks: it moves a pending
	// transaction to its terminal state exactly once.
	Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, to Status, providerRef, method string, raw []byte, paidAt *time.Time, at time.Time) (bool, error)
}
