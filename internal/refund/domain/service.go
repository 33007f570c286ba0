package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound           = errors.New("refund_not_found")
	ErrOrderNotRefundable = errors.New("order_not_refundable")
	ErrInvalidAmount      = errors.New("invalid_refund_amount")
	ErrAmountExceedsOrder = errors.New("refund_exceeds_refundable_amount")
	ErrRequestOpen        = errors.New("refund_request_already_open")
	ErrNotRequested       = errors.New("refund_not_in_requested_state")
	ErrNotApproved        = errors.New("refund_not_in_approved_state")
	ErrAlreadyDecided     = errors.New("refund_already_decided")
)

type RequestRefundInput struct {
	OrderID snowflake.ID `json:"order_id,string"`
	// Amount of zero means refund everything still refundable.
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type DecisionInput struct {
	Note string `json:"note"`
}

type Service interface {
	Request(ctx context.Context, in RequestRefundInput) (*RefundRequest, error)
	Approve(ctx context.Context, refundID snowflake.ID, in DecisionInput) (*RefundRequest, error)
	Reject(ctx context.Context, refundID snowflake.ID, in DecisionInput) (*RefundRequest, error)
	Complete(ctx context.Context, refundID snowflake.ID) (*RefundRequest, error)
	GetByID(ctx context.Context, refundID snowflake.ID) (*RefundRequest, error)
	ListForOrder(ctx context.Context, orderID snowflake.ID) ([]RefundRequest, error)
}
