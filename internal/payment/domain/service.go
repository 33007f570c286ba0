package domain

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound        = errors.New("transaction_not_found")
	ErrOrderNotPayable = errors.New("order_not_payable")
	ErrAmountMismatch  = errors.New("callback_amount_mismatch")
)

type InitiatePaymentInput struct {
	OrderID snowflake.ID `json:"order_id,string"`
	Method  string       `json:"method"`
}

// Service opens checkout sessions for pending orders. A live pending
// transaction for the order is reused instead of opening a second
// session at the gateway.
type Service interface {
	Initiate(ctx context.Context, in InitiatePaymentInput) (*Transaction, error)
	GetByOrder(ctx context.Context, orderID snowflake.ID) ([]Transaction, error)
}

// Reconciler ingests gateway callbacks and settles their orders. The
// delivery contract is at least once; the reconciler makes the effects
// exactly once.
type Reconciler interface {
	IngestCallback(ctx context.Context, provider string, payload []byte, headers http.Header) error
}
