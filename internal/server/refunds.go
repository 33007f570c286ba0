package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	refunddomain "github.com/sitesell/sitesell/internal/refund/domain"
)

type requestRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (s *Server) handleRequestRefund(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	var req requestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	refund, err := s.refundSvc.Request(c.Request.Context(), refunddomain.RequestRefundInput{
		OrderID: orderID,
		Amount:  req.Amount,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": refund})
}

func (s *Server) handleListOrderRefunds(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	refunds, err := s.refundSvc.ListForOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": refunds})
}

func (s *Server) handleGetRefund(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, refunddomain.ErrNotFound)
		return
	}

	refund, err := s.refundSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": refund})
}

type refundDecisionRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleApproveRefund(c *gin.Context) {
	s.decideRefund(c, s.refundSvc.Approve)
}

func (s *Server) handleRejectRefund(c *gin.Context) {
	s.decideRefund(c, s.refundSvc.Reject)
}

func (s *Server) decideRefund(c *gin.Context, decide func(context.Context, snowflake.ID, refunddomain.DecisionInput) (*refunddomain.RefundRequest, error)) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, refunddomain.ErrNotFound)
		return
	}

	var req refundDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	refund, err := decide(c.Request.Context(), id, refunddomain.DecisionInput{
		Note: strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": refund})
}

func (s *Server) handleCompleteRefund(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, refunddomain.ErrNotFound)
		return
	}

	refund, err := s.refundSvc.Complete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": refund})
}
