package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const invoiceColumns = `id, invoice_number, order_id, buyer_id, creator_id, line_items,
	subtotal, platform_fee, total, currency, status, issued_at, created_at`

func (r *repo) InsertIgnore(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO invoices (`+invoiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id) DO NOTHING`,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.OrderID,
		invoice.BuyerID,
		invoice.CreatorID,
		invoice.LineItems,
		invoice.Subtotal,
		invoice.PlatformFee,
		invoice.Total,
		invoice.Currency,
		invoice.Status,
		invoice.IssuedAt,
		invoice.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+` FROM invoices WHERE order_id = ?`,
		orderID,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) ListByBuyer(ctx context.Context, db *gorm.DB, buyerID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+` FROM invoices
		 WHERE buyer_id = ?
		 ORDER BY issued_at DESC`,
		buyerID,
	).Scan(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
