package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/sitesell/sitesell/internal/identity"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
)

func (s *Server) handleListAccess(c *gin.Context) {
	actor, err := identity.Require(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	grants, err := s.accessSvc.ListForUser(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": grants})
}

func (s *Server) handleListInvoices(c *gin.Context) {
	actor, err := identity.Require(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.invoiceSvc.ListForBuyer(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) handleGetOrderInvoice(c *gin.Context) {
	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrNotFound)
		return
	}

	// Ownership is checked through the order lookup.
	if _, err := s.orderSvc.GetByID(c.Request.Context(), orderID.String()); err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoice})
}
