package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreatorBalance is the running ledger of a creator's earned and
// withdrawn funds. AvailableBalance never goes below zero; the guarded
// updates in the repository enforce it.
type CreatorBalance struct {
	CreatorID        snowflake.ID `gorm:"primaryKey" json:"creator_id"`
	AvailableBalance int64        `gorm:"not null;default:0" json:"available_balance"`
	WithdrawnBalance int64        `gorm:"not null;default:0" json:"withdrawn_balance"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CreatorBalance) TableName() string { return "creator_balances" }
