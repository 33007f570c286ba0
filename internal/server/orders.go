package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
)

type createOrderRequest struct {
	WebsiteID     string `json:"website_id"`
	PricingTierID string `json:"pricing_tier_id"`
	Notes         string `json:"notes"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		WebsiteID:     strings.TrimSpace(req.WebsiteID),
		PricingTierID: strings.TrimSpace(req.PricingTierID),
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orderSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.orderSvc.ListMine(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	order, err := s.orderSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}
