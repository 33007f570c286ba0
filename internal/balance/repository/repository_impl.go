package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/balance/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (*domain.CreatorBalance, error) {
	var balance domain.CreatorBalance
	err := db.WithContext(ctx).Raw(
		`SELECT creator_id, available_balance, withdrawn_balance, updated_at
		 FROM creator_balances WHERE creator_id = ?`,
		creatorID,
	).Scan(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.CreatorID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) AddAvailable(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO creator_balances (creator_id, available_balance, withdrawn_balance, updated_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT (creator_id) DO UPDATE SET
			available_balance = creator_balances.available_balance + excluded.available_balance,
			updated_at = excluded.updated_at`,
		creatorID,
		amount,
		time.Now().UTC(),
	).Error
}

func (r *repo) SubtractAvailable(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE creator_balances
		 SET available_balance = available_balance - ?, updated_at = ?
		 WHERE creator_id = ? AND available_balance >= ?`,
		amount,
		time.Now().UTC(),
		creatorID,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MoveToWithdrawn(ctx context.Context, db *gorm.DB, creatorID snowflake.ID, amount int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE creator_balances
		 SET available_balance = available_balance - ?,
		     withdrawn_balance = withdrawn_balance + ?,
		     updated_at = ?
		 WHERE creator_id = ? AND available_balance >= ?`,
		amount,
		amount,
		time.Now().UTC(),
		creatorID,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Put(ctx context.Context, db *gorm.DB, balance *domain.CreatorBalance) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO creator_balances (creator_id, available_balance, withdrawn_balance, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (creator_id) DO UPDATE SET
			available_balance = excluded.available_balance,
			withdrawn_balance = excluded.withdrawn_balance,
			updated_at = excluded.updated_at`,
		balance.CreatorID,
		balance.AvailableBalance,
		balance.WithdrawnBalance,
		balance.UpdatedAt,
	).Error
}

func (r *repo) SumPendingPayouts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(gross_amount), 0)
		 FROM creator_payouts
		 WHERE creator_id = ? AND status IN ('pending', 'processing')`,
		creatorID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumEarnings totals the creator's share of settled orders: item_price
// minus any refunded portion, the refund capped at the item price since
// the platform returns its own fee.
func (r *repo) SumEarnings(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(
			CASE WHEN refunded_amount >= item_price THEN 0
			     ELSE item_price - refunded_amount END
		 ), 0)
		 FROM orders
		 WHERE creator_id = ? AND status IN ('paid', 'refunded')`,
		creatorID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) SumCompletedPayouts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(gross_amount), 0)
		 FROM creator_payouts
		 WHERE creator_id = ? AND status = 'completed'`,
		creatorID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
