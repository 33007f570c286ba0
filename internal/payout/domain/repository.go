package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBankAccount(ctx context.Context, db *gorm.DB, account *BankAccount) error
	FindBankAccount(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BankAccount, error)
	ListBankAccounts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]BankAccount, error)
	ClearDefaultBankAccount(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) error

	Insert(ctx context.Context, db *gorm.DB, payout *CreatorPayout) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreatorPayout, error)
	ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]CreatorPayout, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status) ([]CreatorPayout, error)

	// Transition moves a payout between states only when it still holds
	// the expected one; the caller decides what a false return means.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, processedBy snowflake.ID, notes string, at time.Time) (bool, error)
}
