package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/refund/domain"
	"gorm.io/gorm"
)

const refundColumns = `id, refund_number, order_id, requested_by, amount, currency, reason,
	status, decided_by, decided_at, decision_note, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, refund *domain.RefundRequest) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO refund_requests
			(id, refund_number, order_id, requested_by, amount, currency, reason,
			 status, decided_by, decided_at, decision_note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		refund.ID,
		refund.RefundNumber,
		refund.OrderID,
		refund.RequestedBy,
		refund.Amount,
		refund.Currency,
		refund.Reason,
		refund.Status,
		refund.DecidedBy,
		refund.DecidedAt,
		refund.DecisionNote,
		refund.CreatedAt,
		refund.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RefundRequest, error) {
	var refund domain.RefundRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+refundColumns+` FROM refund_requests WHERE id = ?`,
		id,
	).Scan(&refund).Error
	if err != nil {
		return nil, err
	}
	if refund.ID == 0 {
		return nil, nil
	}
	return &refund, nil
}

func (r *repo) FindOpenByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.RefundRequest, error) {
	var refund domain.RefundRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+refundColumns+` FROM refund_requests
		 WHERE order_id = ? AND status IN ('requested', 'approved')
		 ORDER BY created_at DESC LIMIT 1`,
		orderID,
	).Scan(&refund).Error
	if err != nil {
		return nil, err
	}
	if refund.ID == 0 {
		return nil, nil
	}
	return &refund, nil
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.RefundRequest, error) {
	var refunds []domain.RefundRequest
	err := db.WithContext(ctx).Raw(
		`SELECT `+refundColumns+` FROM refund_requests WHERE order_id = ? ORDER BY created_at DESC`,
		orderID,
	).Scan(&refunds).Error
	return refunds, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, decidedBy snowflake.ID, note string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE refund_requests
		 SET status = ?, decided_by = ?, decided_at = ?, decision_note = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		decidedBy,
		at,
		note,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
