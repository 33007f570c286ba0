package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/access/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const accessColumns = `id, user_id, website_id, order_id, pricing_tier_id, granted_at,
	expires_at, is_active, revoked_at, revoke_reason, created_at, updated_at`

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, access *domain.UserAccess) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_access (`+accessColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, website_id) DO UPDATE SET
			order_id = excluded.order_id,
			pricing_tier_id = excluded.pricing_tier_id,
			granted_at = excluded.granted_at,
			expires_at = excluded.expires_at,
			is_active = excluded.is_active,
			revoked_at = NULL,
			revoke_reason = '',
			updated_at = excluded.updated_at`,
		access.ID,
		access.UserID,
		access.WebsiteID,
		access.OrderID,
		access.PricingTierID,
		access.GrantedAt,
		access.ExpiresAt,
		access.IsActive,
		access.RevokedAt,
		access.RevokeReason,
		access.CreatedAt,
		access.UpdatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID, websiteID snowflake.ID) (*domain.UserAccess, error) {
	var access domain.UserAccess
	err := db.WithContext(ctx).Raw(
		`SELECT `+accessColumns+` FROM user_access
		 WHERE user_id = ? AND website_id = ?`,
		userID,
		websiteID,
	).Scan(&access).Error
	if err != nil {
		return nil, err
	}
	if access.ID == 0 {
		return nil, nil
	}
	return &access, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, userID, websiteID snowflake.ID, now time.Time) (*domain.UserAccess, error) {
	var access domain.UserAccess
	err := db.WithContext(ctx).Raw(
		`SELECT `+accessColumns+` FROM user_access
		 WHERE user_id = ? AND website_id = ? AND is_active = ?
		   AND (expires_at IS NULL OR expires_at > ?)`,
		userID,
		websiteID,
		true,
		now,
	).Scan(&access).Error
	if err != nil {
		return nil, err
	}
	if access.ID == 0 {
		return nil, nil
	}
	return &access, nil
}

func (r *repo) FindByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.UserAccess, error) {
	var access domain.UserAccess
	err := db.WithContext(ctx).Raw(
		`SELECT `+accessColumns+` FROM user_access
		 WHERE order_id = ?`,
		orderID,
	).Scan(&access).Error
	if err != nil {
		return nil, err
	}
	if access.ID == 0 {
		return nil, nil
	}
	return &access, nil
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE user_access
		 SET is_active = ?, revoked_at = ?, revoke_reason = ?, updated_at = ?
		 WHERE id = ?`,
		false,
		at,
		reason,
		at,
		id,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.UserAccess, error) {
	var grants []domain.UserAccess
	err := db.WithContext(ctx).Raw(
		`SELECT `+accessColumns+` FROM user_access
		 WHERE user_id = ?
		 ORDER BY granted_at DESC`,
		userID,
	).Scan(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}
