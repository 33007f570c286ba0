package domain

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	ErrProviderNotFound = errors.New("payment_provider_not_found")
	ErrInvalidSignature = errors.New("invalid_callback_signature")
	ErrInvalidPayload   = errors.New("invalid_callback_payload")
	ErrEventIgnored     = errors.New("callback_event_ignored")
	ErrGatewayFailure   = errors.New("gateway_request_failed")
)

// CheckoutRequest carries what an adapter needs to open a hosted
// checkout session at its gateway.
type CheckoutRequest struct {
	MerchantRef   string
	OrderNumber   string
	Amount        int64
	Currency      string
	ItemName      string
	CustomerName  string
	CustomerEmail string
	Method        string
	ExpiresAt     time.Time
}

type CheckoutSession struct {
	ProviderRef string
	PaymentURL  string
	Method      string
	RawResponse []byte
}

// CallbackEvent is the canonical gateway callback parsed by adapters.
type CallbackEvent struct {
	Provider    string
	MerchantRef string
	ProviderRef string
	Method      string
	Status      Status
	Amount      int64
	Currency    string
	PaidAt      *time.Time
	RawPayload  []byte
}

// Adapter is one gateway integration. Verify authenticates a raw
// callback before Parse maps it onto a CallbackEvent.
type Adapter interface {
	Provider() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CallbackEvent, error)
}
