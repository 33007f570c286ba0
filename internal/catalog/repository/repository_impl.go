package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertWebsite(ctx context.Context, db *gorm.DB, website *domain.Website) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO websites (id, creator_id, title, slug, description, default_price, currency, is_active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		website.ID,
		website.CreatorID,
		website.Title,
		website.Slug,
		website.Description,
		website.DefaultPrice,
		website.Currency,
		website.IsActive,
		website.Metadata,
		website.CreatedAt,
		website.UpdatedAt,
	).Error
}

func (r *repo) InsertTier(ctx context.Context, db *gorm.DB, tier *domain.PricingTier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pricing_tiers (id, website_id, name, price, duration_days, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tier.ID,
		tier.WebsiteID,
		tier.Name,
		tier.Price,
		tier.DurationDays,
		tier.IsActive,
		tier.CreatedAt,
	).Error
}

func (r *repo) FindWebsiteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Website, error) {
	var website domain.Website
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, title, slug, description, default_price, currency, is_active, metadata, created_at, updated_at
		 FROM websites WHERE id = ?`,
		id,
	).Scan(&website).Error
	if err != nil {
		return nil, err
	}
	if website.ID == 0 {
		return nil, nil
	}
	return &website, nil
}

func (r *repo) FindTierByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PricingTier, error) {
	var tier domain.PricingTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, website_id, name, price, duration_days, is_active, created_at
		 FROM pricing_tiers WHERE id = ?`,
		id,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == 0 {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) ListActiveWebsites(ctx context.Context, db *gorm.DB) ([]domain.Website, error) {
	var websites []domain.Website
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, title, slug, description, default_price, currency, is_active, metadata, created_at, updated_at
		 FROM websites WHERE is_active = ?
		 ORDER BY created_at DESC`,
		true,
	).Scan(&websites).Error
	if err != nil {
		return nil, err
	}
	return websites, nil
}
