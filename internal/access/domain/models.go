package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserAccess is the entitlement granting a buyer use of a website's
// product. At most one active row exists per (user_id, website_id);
// grants upsert instead of duplicating.
type UserAccess struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID  `gorm:"not null;uniqueIndex:ux_user_access_user_website,priority:1" json:"user_id"`
	WebsiteID     snowflake.ID  `gorm:"not null;uniqueIndex:ux_user_access_user_website,priority:2" json:"website_id"`
	OrderID       snowflake.ID  `gorm:"not null;index" json:"order_id"`
	PricingTierID *snowflake.ID `json:"pricing_tier_id,omitempty"`
	GrantedAt     time.Time     `gorm:"not null" json:"granted_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	IsActive      bool          `gorm:"not null;default:true" json:"is_active"`
	RevokedAt     *time.Time    `json:"revoked_at,omitempty"`
	RevokeReason  string        `gorm:"type:text" json:"revoke_reason,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserAccess) TableName() string { return "user_access" }

// Live reports whether the access currently grants entitlement.
func (a UserAccess) Live(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}
