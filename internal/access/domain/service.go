package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type GrantRequest struct {
	UserID        snowflake.ID
	WebsiteID     snowflake.ID
	OrderID       snowflake.ID
	PricingTierID *snowflake.ID
	// DurationDays extends an existing live grant or starts a new
	// window; nil grants perpetual access.
	DurationDays *int
}

// Granter issues and revokes entitlements. Grant and RevokeByOrder take
// the caller's transaction handle so the reconciler and refund workflow
// can fold them into their own atomic unit.
type Granter interface {
	Grant(ctx context.Context, tx *gorm.DB, req GrantRequest) (UserAccess, error)
	RevokeByOrder(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, reason string) error
	ListForUser(ctx context.Context, userID snowflake.ID) ([]UserAccess, error)
}

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, access *UserAccess) error
	Find(ctx context.Context, db *gorm.DB, userID, websiteID snowflake.ID) (*UserAccess, error)
	FindActive(ctx context.Context, db *gorm.DB, userID, websiteID snowflake.ID, now time.Time) (*UserAccess, error)
	FindByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*UserAccess, error)
	Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]UserAccess, error)
}

var (
	ErrNotFound     = errors.New("access_not_found")
	ErrInvalidGrant = errors.New("invalid_grant")
)
