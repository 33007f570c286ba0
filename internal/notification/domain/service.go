package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindOrderPaid       Kind = "order.paid"
	KindOrderExpired    Kind = "order.expired"
	KindPaymentFailed   Kind = "payment.failed"
	KindAccessGranted   Kind = "access.granted"
	KindAccessRevoked   Kind = "access.revoked"
	KindPayoutRequested Kind = "payout.requested"
	KindPayoutCompleted Kind = "payout.completed"
	KindPayoutFailed    Kind = "payout.failed"
	KindRefundRequested Kind = "refund.requested"
	KindRefundCompleted Kind = "refund.completed"
	KindRefundRejected  Kind = "refund.rejected"
)

type Event struct {
	Kind        Kind
	RecipientID snowflake.ID
	Subject     string
	Data        map[string]interface{}
}

// Service delivers user-facing notifications. Delivery is best effort;
// implementations must never fail the business operation that emits the
// event.
type Service interface {
	Notify(ctx context.Context, event Event)
}
