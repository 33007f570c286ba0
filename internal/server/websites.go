package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
)

type createWebsiteRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DefaultPrice int64  `json:"default_price"`
	Currency     string `json:"currency"`
}

func (s *Server) handleCreateWebsite(c *gin.Context) {
	var req createWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	website, err := s.catalogSvc.CreateWebsite(c.Request.Context(), catalogdomain.CreateWebsiteRequest{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		DefaultPrice: req.DefaultPrice,
		Currency:     strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": website})
}

type createTierRequest struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	DurationDays *int   `json:"duration_days"`
}

func (s *Server) handleCreateTier(c *gin.Context) {
	var req createTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tier, err := s.catalogSvc.CreateTier(c.Request.Context(), catalogdomain.CreateTierRequest{
		WebsiteID:    c.Param("id"),
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tier})
}

func (s *Server) handleGetWebsite(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, catalogdomain.ErrNotFound)
		return
	}

	website, err := s.catalogSvc.GetWebsite(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": website})
}

func (s *Server) handleListWebsites(c *gin.Context) {
	websites, err := s.catalogSvc.ListWebsites(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": websites})
}
