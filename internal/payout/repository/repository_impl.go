package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/payout/domain"
	"gorm.io/gorm"
)

const payoutColumns = `id, payout_number, creator_id, gross_amount, fee_amount, net_amount,
	currency, status, bank_code, bank_name, account_number, account_name,
	notes, processed_by, processed_at, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBankAccount(ctx context.Context, db *gorm.DB, account *domain.BankAccount) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bank_accounts
			(id, creator_id, bank_code, bank_name, account_number, account_name, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.CreatorID,
		account.BankCode,
		account.BankName,
		account.AccountNumber,
		account.AccountName,
		account.IsDefault,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindBankAccount(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BankAccount, error) {
	var account domain.BankAccount
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, bank_code, bank_name, account_number, account_name, is_default, created_at, updated_at
		 FROM bank_accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) ListBankAccounts(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]domain.BankAccount, error) {
	var accounts []domain.BankAccount
	err := db.WithContext(ctx).Raw(
		`SELECT id, creator_id, bank_code, bank_name, account_number, account_name, is_default, created_at, updated_at
		 FROM bank_accounts WHERE creator_id = ?
		 ORDER BY is_default DESC, created_at DESC`,
		creatorID,
	).Scan(&accounts).Error
	return accounts, err
}

func (r *repo) ClearDefaultBankAccount(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bank_accounts SET is_default = ?, updated_at = ? WHERE creator_id = ? AND is_default = ?`,
		false,
		time.Now().UTC(),
		creatorID,
		true,
	).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payout *domain.CreatorPayout) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO creator_payouts
			(id, payout_number, creator_id, gross_amount, fee_amount, net_amount,
			 currency, status, bank_code, bank_name, account_number, account_name,
			 notes, processed_by, processed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payout.ID,
		payout.PayoutNumber,
		payout.CreatorID,
		payout.GrossAmount,
		payout.FeeAmount,
		payout.NetAmount,
		payout.Currency,
		payout.Status,
		payout.BankCode,
		payout.BankName,
		payout.AccountNumber,
		payout.AccountName,
		payout.Notes,
		payout.ProcessedBy,
		payout.ProcessedAt,
		payout.CreatedAt,
		payout.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CreatorPayout, error) {
	var payout domain.CreatorPayout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM creator_payouts WHERE id = ?`,
		id,
	).Scan(&payout).Error
	if err != nil {
		return nil, err
	}
	if payout.ID == 0 {
		return nil, nil
	}
	return &payout, nil
}

func (r *repo) ListByCreator(ctx context.Context, db *gorm.DB, creatorID snowflake.ID) ([]domain.CreatorPayout, error) {
	var payouts []domain.CreatorPayout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM creator_payouts WHERE creator_id = ? ORDER BY created_at DESC`,
		creatorID,
	).Scan(&payouts).Error
	return payouts, err
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.Status) ([]domain.CreatorPayout, error) {
	var payouts []domain.CreatorPayout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM creator_payouts WHERE status = ? ORDER BY created_at ASC`,
		status,
	).Scan(&payouts).Error
	return payouts, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, processedBy snowflake.ID, notes string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE creator_payouts
		 SET status = ?, processed_by = ?, processed_at = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		processedBy,
		at,
		notes,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
