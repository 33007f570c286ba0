package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Website is a creator-owned product listed on the marketplace.
type Website struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	CreatorID    snowflake.ID      `gorm:"not null;index" json:"creator_id"`
	Title        string            `gorm:"type:text;not null" json:"title"`
	Slug         string            `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Description  string            `gorm:"type:text" json:"description,omitempty"`
	DefaultPrice int64             `gorm:"not null" json:"default_price"`
	Currency     string            `gorm:"type:text;not null" json:"currency"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Website) TableName() string { return "websites" }

// PricingTier is a purchasable access plan for a website. A nil
// DurationDays grants perpetual access.
type PricingTier struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	WebsiteID    snowflake.ID `gorm:"not null;index" json:"website_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Price        int64        `gorm:"not null" json:"price"`
	DurationDays *int         `json:"duration_days,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PricingTier) TableName() string { return "pricing_tiers" }
