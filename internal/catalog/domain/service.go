package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateWebsiteRequest struct {
	Title        string
	Description  string
	DefaultPrice int64
	Currency     string
}

type CreateTierRequest struct {
	WebsiteID    string
	Name         string
	Price        int64
	DurationDays *int
}

type Service interface {
	CreateWebsite(ctx context.Context, req CreateWebsiteRequest) (Website, error)
	CreateTier(ctx context.Context, req CreateTierRequest) (PricingTier, error)
	GetWebsite(ctx context.Context, id snowflake.ID) (Website, error)
	GetTier(ctx context.Context, id snowflake.ID) (PricingTier, error)
	ListWebsites(ctx context.Context) ([]Website, error)
}

var (
	ErrNotFound        = errors.New("website_not_found")
	ErrTierNotFound    = errors.New("pricing_tier_not_found")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidWebsite  = errors.New("invalid_website")
	ErrSlugTaken       = errors.New("slug_taken")
)
