package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	balancedomain "github.com/sitesell/sitesell/internal/balance/domain"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
	"github.com/sitesell/sitesell/internal/identity"
	invoicedomain "github.com/sitesell/sitesell/internal/invoice/domain"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	paymentdomain "github.com/sitesell/sitesell/internal/payment/domain"
	payoutdomain "github.com/sitesell/sitesell/internal/payout/domain"
	refunddomain "github.com/sitesell/sitesell/internal/refund/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware converts errors pushed onto the gin context
// into the JSON error envelope. Handlers report errors with
// AbortWithError and never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case errors.Is(err, identity.ErrUnauthenticated),
		errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, identity.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}
	case errors.Is(err, paymentdomain.ErrGatewayFailure):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "payment gateway unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalogdomain.ErrInvalidTitle),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidCurrency),
		errors.Is(err, catalogdomain.ErrInvalidWebsite),
		errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrSelfPurchase),
		errors.Is(err, accessdomain.ErrInvalidGrant),
		errors.Is(err, invoicedomain.ErrInvalidRequest),
		errors.Is(err, balancedomain.ErrInvalidAmount),
		errors.Is(err, payoutdomain.ErrInvalidAmount),
		errors.Is(err, payoutdomain.ErrInvalidDecision),
		errors.Is(err, refunddomain.ErrInvalidAmount),
		errors.Is(err, refunddomain.ErrAmountExceedsOrder),
		errors.Is(err, paymentdomain.ErrInvalidPayload):
		return true
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrTierNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, accessdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrBankAccountNotFound),
		errors.Is(err, refunddomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound):
		return true
	}
	return false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrSlugTaken),
		errors.Is(err, orderdomain.ErrAlreadyOwned),
		errors.Is(err, orderdomain.ErrPendingOrderExists),
		errors.Is(err, orderdomain.ErrNotPending),
		errors.Is(err, orderdomain.ErrWebsiteInactive),
		errors.Is(err, orderdomain.ErrTierMismatch),
		errors.Is(err, balancedomain.ErrInsufficientBalance),
		errors.Is(err, payoutdomain.ErrInsufficientBalance),
		errors.Is(err, payoutdomain.ErrNoBankAccount),
		errors.Is(err, payoutdomain.ErrAlreadyProcessed),
		errors.Is(err, refunddomain.ErrOrderNotRefundable),
		errors.Is(err, refunddomain.ErrRequestOpen),
		errors.Is(err, refunddomain.ErrNotRequested),
		errors.Is(err, refunddomain.ErrNotApproved),
		errors.Is(err, refunddomain.ErrAlreadyDecided),
		errors.Is(err, paymentdomain.ErrOrderNotPayable),
		errors.Is(err, paymentdomain.ErrAmountMismatch):
		return true
	}
	return false
}
