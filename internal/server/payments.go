package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	paymentdomain "github.com/sitesell/sitesell/internal/payment/domain"
)

type initiatePaymentRequest struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
}

func (s *Server) handleInitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		AbortWithError(c, orderdomain.ErrInvalidID)
		return
	}

	txn, err := s.paymentSvc.Initiate(c.Request.Context(), paymentdomain.InitiatePaymentInput{
		OrderID: orderID,
		Method:  strings.TrimSpace(req.Method),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": txn})
}

func (s *Server) handleListOrderTransactions(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	txns, err := s.paymentSvc.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txns})
}

func (s *Server) handlePaymentCallback(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.reconciler.IngestCallback(c.Request.Context(), provider, payload, c.Request.Header); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
