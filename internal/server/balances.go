package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/sitesell/sitesell/internal/identity"
)

func (s *Server) handleGetBalance(c *gin.Context) {
	actor, err := identity.Require(c.Request.Context(), identity.RoleCreator)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.ledger.GetBalance(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balance})
}

func (s *Server) handleGetWithdrawable(c *gin.Context) {
	actor, err := identity.Require(c.Request.Context(), identity.RoleCreator)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	withdrawable, err := s.ledger.Withdrawable(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"withdrawable": withdrawable}})
}

func (s *Server) handleRecalculateBalance(c *gin.Context) {
	creatorID, err := snowflake.ParseString(c.Param("creator_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	balance, err := s.ledger.Recalculate(c.Request.Context(), creatorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balance})
}
