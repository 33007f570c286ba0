package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/balance/domain"
	"github.com/sitesell/sitesell/internal/balance/repository"
	"github.com/sitesell/sitesell/internal/identity"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var balanceSchema = []string{
	`CREATE TABLE creator_balances (
		creator_id INTEGER PRIMARY KEY,
		available_balance INTEGER NOT NULL DEFAULT 0,
		withdrawn_balance INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE creator_payouts (
		id INTEGER PRIMARY KEY,
		payout_number TEXT NOT NULL UNIQUE,
		creator_id INTEGER NOT NULL,
		gross_amount INTEGER NOT NULL,
		fee_amount INTEGER NOT NULL,
		net_amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		bank_code TEXT NOT NULL,
		bank_name TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL,
		account_name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		processed_by INTEGER,
		processed_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		buyer_id INTEGER NOT NULL,
		website_id INTEGER NOT NULL,
		pricing_tier_id INTEGER,
		creator_id INTEGER NOT NULL,
		item_name TEXT NOT NULL,
		item_price INTEGER NOT NULL,
		platform_fee INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		refund_status TEXT NOT NULL DEFAULT 'none',
		refunded_amount INTEGER NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		paid_at DATETIME,
		notes TEXT NOT NULL DEFAULT '',
		metadata TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

func setupLedger(t *testing.T) (domain.Ledger, *gorm.DB, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, stmt := range balanceSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	ledger := New(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})
	return ledger, db, node
}

func creatorCtx(id snowflake.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{UserID: id, Role: identity.RoleCreator})
}

func adminCtx(id snowflake.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{UserID: id, Role: identity.RoleAdmin})
}

func seedPaidOrder(t *testing.T, db *gorm.DB, node *snowflake.Node, creatorID snowflake.ID, itemPrice, refunded int64, status string) {
	t.Helper()

	now := time.Now().UTC()
	id := node.Generate()
	err := db.Exec(
		`INSERT INTO orders (id, order_number, buyer_id, website_id, creator_id, item_name,
			item_price, platform_fee, total_amount, currency, status, refunded_amount,
			expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("ORD-T-%s", id), node.Generate(), node.Generate(), creatorID, "Site",
		itemPrice, int64(1000), itemPrice+1000, "IDR", status, refunded,
		now.Add(24*time.Hour), now, now,
	).Error
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func seedPayout(t *testing.T, db *gorm.DB, node *snowflake.Node, creatorID snowflake.ID, gross int64, status string) {
	t.Helper()

	now := time.Now().UTC()
	id := node.Generate()
	err := db.Exec(
		`INSERT INTO creator_payouts (id, payout_number, creator_id, gross_amount, fee_amount,
			net_amount, currency, status, bank_code, account_number, account_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("PO-T-%s", id), creatorID, gross, int64(2500),
		gross-2500, "IDR", status, "BCA", "12345678", "A Creator", now, now,
	).Error
	if err != nil {
		t.Fatalf("seed payout: %v", err)
	}
}

func TestCreditAndGetBalance(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()

	if err := ledger.Credit(context.Background(), db, creatorID, 99000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Credit(context.Background(), db, creatorID, 50000); err != nil {
		t.Fatalf("credit again: %v", err)
	}

	balance, err := ledger.GetBalance(creatorCtx(creatorID), creatorID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.AvailableBalance != 149000 {
		t.Fatalf("expected 149000 available, got %d", balance.AvailableBalance)
	}
	if balance.WithdrawnBalance != 0 {
		t.Fatalf("expected 0 withdrawn, got %d", balance.WithdrawnBalance)
	}
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	ledger, db, node := setupLedger(t)

	if err := ledger.Credit(context.Background(), db, node.Generate(), 0); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := ledger.Credit(context.Background(), db, node.Generate(), -5); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestDebitForRefundNeverGoesNegative(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()

	if err := ledger.Credit(context.Background(), db, creatorID, 10000); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := ledger.DebitForRefund(context.Background(), db, creatorID, 20000); err != domain.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := ledger.DebitForRefund(context.Background(), db, creatorID, 10000); err != nil {
		t.Fatalf("debit full amount: %v", err)
	}

	balance, err := ledger.GetBalance(creatorCtx(creatorID), creatorID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.AvailableBalance != 0 {
		t.Fatalf("expected 0 available, got %d", balance.AvailableBalance)
	}
}

func TestWithdrawableSubtractsPendingPayouts(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()

	if err := ledger.Credit(context.Background(), db, creatorID, 99000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	seedPayout(t, db, node, creatorID, 60000, "pending")

	withdrawable, err := ledger.Withdrawable(creatorCtx(creatorID), creatorID)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	if withdrawable != 39000 {
		t.Fatalf("expected withdrawable 39000, got %d", withdrawable)
	}
}

func TestCompleteWithdrawalMovesFunds(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()

	if err := ledger.Credit(context.Background(), db, creatorID, 99000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.CompleteWithdrawal(context.Background(), db, creatorID, 60000); err != nil {
		t.Fatalf("complete withdrawal: %v", err)
	}

	balance, err := ledger.GetBalance(creatorCtx(creatorID), creatorID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.AvailableBalance != 39000 {
		t.Fatalf("expected 39000 available, got %d", balance.AvailableBalance)
	}
	if balance.WithdrawnBalance != 60000 {
		t.Fatalf("expected 60000 withdrawn, got %d", balance.WithdrawnBalance)
	}
}

func TestRecalculateMatchesRunningTotals(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()
	adminID := node.Generate()

	// Running state: two paid orders, one partially refunded order, one
	// fully refunded order, one completed payout.
	seedPaidOrder(t, db, node, creatorID, 99000, 0, "paid")
	seedPaidOrder(t, db, node, creatorID, 50000, 0, "paid")
	seedPaidOrder(t, db, node, creatorID, 40000, 10000, "paid")
	seedPaidOrder(t, db, node, creatorID, 30000, 31000, "refunded")
	seedPayout(t, db, node, creatorID, 60000, "completed")

	ledgerTotal := int64(99000 + 50000 + (40000 - 10000) + 0)
	if err := ledger.Credit(context.Background(), db, creatorID, ledgerTotal); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.CompleteWithdrawal(context.Background(), db, creatorID, 60000); err != nil {
		t.Fatalf("complete withdrawal: %v", err)
	}

	rebuilt, err := ledger.Recalculate(adminCtx(adminID), creatorID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if rebuilt.AvailableBalance != ledgerTotal-60000 {
		t.Fatalf("expected recalculated available %d, got %d", ledgerTotal-60000, rebuilt.AvailableBalance)
	}
	if rebuilt.WithdrawnBalance != 60000 {
		t.Fatalf("expected recalculated withdrawn 60000, got %d", rebuilt.WithdrawnBalance)
	}
}

func TestRecalculateCorrectsDrift(t *testing.T) {
	ledger, db, node := setupLedger(t)
	creatorID := node.Generate()
	adminID := node.Generate()

	seedPaidOrder(t, db, node, creatorID, 99000, 0, "paid")

	// A drifted stored row that disagrees with order history.
	if err := db.Exec(
		`INSERT INTO creator_balances (creator_id, available_balance, withdrawn_balance, updated_at)
		 VALUES (?, ?, ?, ?)`,
		creatorID, int64(123), int64(0), time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed drifted balance: %v", err)
	}

	rebuilt, err := ledger.Recalculate(adminCtx(adminID), creatorID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if rebuilt.AvailableBalance != 99000 {
		t.Fatalf("expected corrected balance 99000, got %d", rebuilt.AvailableBalance)
	}

	balance, err := ledger.GetBalance(creatorCtx(creatorID), creatorID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.AvailableBalance != 99000 {
		t.Fatalf("expected stored balance corrected to 99000, got %d", balance.AvailableBalance)
	}
}

func TestRecalculateRequiresAdmin(t *testing.T) {
	ledger, _, node := setupLedger(t)
	creatorID := node.Generate()

	if _, err := ledger.Recalculate(creatorCtx(creatorID), creatorID); err != identity.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
