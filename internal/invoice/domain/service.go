package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type IssueRequest struct {
	OrderID     snowflake.ID
	OrderNumber string
	BuyerID     snowflake.ID
	CreatorID   snowflake.ID
	ItemName    string
	ItemPrice   int64
	PlatformFee int64
	Total       int64
	Currency    string
}

// Issuer creates invoices inside the caller's transaction. IssueForOrder
// is insert-or-ignore on order_id, so retries never produce a second
// invoice for the same order.
type Issuer interface {
	IssueForOrder(ctx context.Context, tx *gorm.DB, req IssueRequest) (Invoice, error)
	GetByOrder(ctx context.Context, orderID snowflake.ID) (Invoice, error)
	ListForBuyer(ctx context.Context, buyerID snowflake.ID) ([]Invoice, error)
}

type Repository interface {
	InsertIgnore(ctx context.Context, db *gorm.DB, invoice *Invoice) (bool, error)
	FindByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*Invoice, error)
	ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]Invoice, error)
}

var (
	ErrNotFound       = errors.New("invoice_not_found")
	ErrInvalidRequest = errors.New("invalid_invoice_request")
)
