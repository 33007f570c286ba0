package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/payment/domain"
	"gorm.io/gorm"
)

const txnColumns = `id, merchant_ref, order_id, provider, provider_ref, method, amount,
	currency, status, payment_url, gateway_response, paid_at, expires_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions
			(id, merchant_ref, order_id, provider, provider_ref, method, amount,
			 currency, status, payment_url, gateway_response, paid_at, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.MerchantRef,
		txn.OrderID,
		txn.Provider,
		txn.ProviderRef,
		txn.Method,
		txn.Amount,
		txn.Currency,
		txn.Status,
		txn.PaymentURL,
		txn.GatewayResponse,
		txn.PaidAt,
		txn.ExpiresAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE id = ?`,
		id,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) FindByMerchantRef(ctx context.Context, db *gorm.DB, merchantRef string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE merchant_ref = ?`,
		merchantRef,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) FindPendingByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID, now time.Time) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions
		 WHERE order_id = ? AND status = 'pending' AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		orderID,
		now,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE order_id = ? ORDER BY created_at DESC`,
		orderID,
	).Scan(&txns).Error
	return txns, err
}

func (r *repo) Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, to domain.Status, providerRef, method string, raw []byte, paidAt *time.Time, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?,
		     provider_ref = CASE WHEN ? != '' THEN ? ELSE provider_ref END,
		     method = CASE WHEN ? != '' THEN ? ELSE method END,
		     gateway_response = ?,
		     paid_at = ?,
		     updated_at = ?
		 WHERE id = ? AND status = 'pending'`,
		to,
		providerRef,
		providerRef,
		method,
		method,
		raw,
		paidAt,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
