package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const orderColumns = `id, order_number, buyer_id, website_id, pricing_tier_id, creator_id,
	item_name, item_price, platform_fee, total_amount, currency, status,
	refund_status, refunded_amount, expires_at, paid_at, notes, metadata,
	created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderNumber,
		order.BuyerID,
		order.WebsiteID,
		order.PricingTierID,
		order.CreatorID,
		order.ItemName,
		order.ItemPrice,
		order.PlatformFee,
		order.TotalAmount,
		order.Currency,
		order.Status,
		order.RefundStatus,
		order.RefundedAmount,
		order.ExpiresAt,
		order.PaidAt,
		order.Notes,
		order.Metadata,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE order_number = ?`,
		number,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindPendingByBuyerAndWebsite(ctx context.Context, db *gorm.DB, buyerID, websiteID snowflake.ID, now time.Time) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders
		 WHERE buyer_id = ? AND website_id = ? AND status = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		buyerID,
		websiteID,
		domain.StatusPending,
		now,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders
		 WHERE buyer_id = ?
		 ORDER BY created_at DESC`,
		buyerID,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders
		 WHERE creator_id = ?
		 ORDER BY created_at DESC`,
		creatorID,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaid,
		paidAt,
		paidAt,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetRefundStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.RefundStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET refund_status = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		at,
		id,
	).Error
}

func (r *repo) ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET refunded_amount = refunded_amount + ?,
		     refund_status = ?,
		     status = CASE WHEN refunded_amount + ? >= total_amount THEN ? ELSE status END,
		     updated_at = ?
		 WHERE id = ? AND status = ? AND refunded_amount + ? <= total_amount`,
		amount,
		domain.RefundStatusCompleted,
		amount,
		domain.StatusRefunded,
		at,
		id,
		domain.StatusPaid,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
