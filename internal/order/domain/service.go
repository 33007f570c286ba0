package domain

import (
	"context"
	"errors"
)

type CreateOrderRequest struct {
	WebsiteID     string
	PricingTierID string
	Notes         string
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (Order, error)
	Cancel(ctx context.Context, id string) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	ListMine(ctx context.Context) ([]Order, error)
}

// FeePolicy computes the buyer-side platform fee added on top of the
// item price. Pluggable so the schedule is not a literal in the engine.
type FeePolicy interface {
	PlatformFee(itemPrice int64) int64
}

// FlatFee charges a fixed per-transaction amount.
type FlatFee struct {
	Amount int64
}

func (f FlatFee) PlatformFee(int64) int64 { return f.Amount }

var (
	ErrNotFound           = errors.New("order_not_found")
	ErrInvalidID          = errors.New("invalid_order_id")
	ErrWebsiteInactive    = errors.New("website_inactive")
	ErrTierMismatch       = errors.New("tier_not_for_website")
	ErrAlreadyOwned       = errors.New("access_already_owned")
	ErrPendingOrderExists = errors.New("pending_order_exists")
	ErrNotPending         = errors.New("order_not_pending")
	ErrSelfPurchase       = errors.New("cannot_buy_own_website")
)
