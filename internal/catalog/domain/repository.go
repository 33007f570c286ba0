package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertWebsite(ctx context.Context, db *gorm.DB, website *Website) error
	InsertTier(ctx context.Context, db *gorm.DB, tier *PricingTier) error
	FindWebsiteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Website, error)
	FindTierByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PricingTier, error)
	ListActiveWebsites(ctx context.Context, db *gorm.DB) ([]Website, error)
}
