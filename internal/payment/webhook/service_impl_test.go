package webhook

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accessrepository "github.com/sitesell/sitesell/internal/access/repository"
	accessservice "github.com/sitesell/sitesell/internal/access/service"
	balancerepository "github.com/sitesell/sitesell/internal/balance/repository"
	balanceservice "github.com/sitesell/sitesell/internal/balance/service"
	catalogrepository "github.com/sitesell/sitesell/internal/catalog/repository"
	invoicerepository "github.com/sitesell/sitesell/internal/invoice/repository"
	invoiceservice "github.com/sitesell/sitesell/internal/invoice/service"
	notifservice "github.com/sitesell/sitesell/internal/notification/service"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	orderrepository "github.com/sitesell/sitesell/internal/order/repository"
	"github.com/sitesell/sitesell/internal/payment/adapters"
	"github.com/sitesell/sitesell/internal/payment/domain"
	paymentrepository "github.com/sitesell/sitesell/internal/payment/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var webhookSchema = []string{
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
	`CREATE TABLE pricing_tiers (
		id INTEGER PRIMARY KEY,
		website_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		price INTEGER NOT NULL,
		duration_days INTEGER,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE user_access (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		website_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL,
		pricing_tier_id INTEGER,
		granted_at DATETIME NOT NULL,
		expires_at DATETIME,
		is_active INTEGER NOT NULL DEFAULT 1,
		revoked_at DATETIME,
		revoke_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (user_id, website_id)
	)`,
	`CREATE TABLE invoices (
		id INTEGER PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		order_id INTEGER NOT NULL UNIQUE,
		buyer_id INTEGER NOT NULL,
		creator_id INTEGER NOT NULL,
		line_items TEXT NOT NULL,
		subtotal INTEGER NOT NULL,
		platform_fee INTEGER NOT NULL,
		total INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		issued_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE creator_balances (
		creator_id INTEGER PRIMARY KEY,
		available_balance INTEGER NOT NULL DEFAULT 0,
		withdrawn_balance INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE payment_transactions (
		id INTEGER PRIMARY KEY,
		merchant_ref TEXT NOT NULL UNIQUE,
		order_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		provider_ref TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_url TEXT NOT NULL DEFAULT '',
		gateway_response TEXT,
		paid_at DATETIME,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

type fakeAdapter struct {
	verifyErr error
	event     *domain.CallbackEvent
	parseErr  error
}

func (f *fakeAdapter) Provider() string { return "fakepay" }

func (f *fakeAdapter) CreateCheckout(context.Context, domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	return &domain.CheckoutSession{ProviderRef: "FP-1", PaymentURL: "https://fakepay.test/checkout"}, nil
}

func (f *fakeAdapter) Verify(context.Context, []byte, http.Header) error {
	return f.verifyErr
}

func (f *fakeAdapter) Parse(_ context.Context, payload []byte) (*domain.CallbackEvent, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	event := *f.event
	event.RawPayload = payload
	return &event, nil
}

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     domain.Reconciler
	adapter *fakeAdapter

	orders orderdomain.Repository
	txns   domain.Repository
}

func setupReconciler(t *testing.T) *fixture {
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error

	for _, stmt := range webhookSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	adapter := &fakeAdapter{}
	log := zap.NewNop()

	accessSvc := accessservice.New(accessservice.Params{
		DB: db, Log: log, GenID: node, Repo: accessrepository.Provide(),
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Repo: invoicerepository.Provide(),
	})
	ledger := balanceservice.New(balanceservice.Params{
		DB: db, Log: log, Repo: balancerepository.Provide(),
	})
	notifier := notifservice.New(notifservice.Params{Log: log})

	svc := New(Params{
		DB:       db,
		Log:      log,
		Repo:     paymentrepository.Provide(),
		Orders:   orderrepository.Provide(),
		Catalog:  catalogrepository.Provide(),
		Access:   accessSvc,
		Invoices: invoiceSvc,
		Ledger:   ledger,
		Notifier: notifier,
		Adapters: adapters.NewRegistry(adapter),
	})

	return &fixture{
		db:      db,
		node:    node,
		svc:     svc,
		adapter: adapter,
		orders:  orderrepository.Provide(),
		txns:    paymentrepository.Provide(),
	}
}

func (f *fixture) seedOrder(t *testing.T, itemPrice, fee int64) *orderdomain.Order {
	t.Helper()

	now := time.Now().UTC()
	id := f.node.Generate()
	order := &orderdomain.Order{
		ID:          id,
		OrderNumber: fmt.Sprintf("ORD-TEST-%s", id),
		BuyerID:     f.node.Generate(),
		WebsiteID:   f.node.Generate(),
		CreatorID:   f.node.Generate(),
		ItemName:    "Example Site",
		ItemPrice:   itemPrice,
		PlatformFee: fee,
		TotalAmount: itemPrice + fee,
		Currency:    "IDR",
		Status:      orderdomain.StatusPending,
		ExpiresAt:   now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.orders.Insert(context.Background(), f.db, order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func (f *fixture) seedTxn(t *testing.T, order *orderdomain.Order, merchantRef string) *domain.Transaction {
	t.Helper()

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          f.node.Generate(),
		MerchantRef: merchantRef,
		OrderID:     order.ID,
		Provider:    "fakepay",
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Status:      domain.StatusPending,
		ExpiresAt:   order.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.txns.Insert(context.Background(), f.db, txn); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func (f *fixture) balanceOf(t *testing.T, creatorID snowflake.ID) int64 {
	t.Helper()
	var balance int64
	err := f.db.Raw(`SELECT COALESCE(available_balance, 0) FROM creator_balances WHERE creator_id = ?`, creatorID).Scan(&balance).Error
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return balance
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Raw(query, args...).Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func completedEvent(merchantRef string, amount int64) *domain.CallbackEvent {
	paidAt := time.Now().UTC()
	return &domain.CallbackEvent{
		Provider:    "fakepay",
		MerchantRef: merchantRef,
		ProviderRef: "FP-REF",
		Method:      "QRIS",
		Status:      domain.StatusCompleted,
		Amount:      amount,
		Currency:    "IDR",
		PaidAt:      &paidAt,
	}
}

func TestCallbackSettlesOrder(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-settle")
	f.adapter.event = completedEvent(txn.MerchantRef, 100000)

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, err := f.orders.FindByID(context.Background(), f.db, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != orderdomain.StatusPaid {
		t.Fatalf("expected paid order, got %s", got.Status)
	}
	if got.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}

	gotTxn, err := f.txns.FindByMerchantRef(context.Background(), f.db, txn.MerchantRef)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if gotTxn.Status != domain.StatusCompleted {
		t.Fatalf("expected completed transaction, got %s", gotTxn.Status)
	}

	if n := f.count(t, `SELECT COUNT(*) FROM user_access WHERE order_id = ? AND is_active = 1`, order.ID); n != 1 {
		t.Fatalf("expected 1 active access grant, got %d", n)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM invoices WHERE order_id = ?`, order.ID); n != 1 {
		t.Fatalf("expected 1 invoice, got %d", n)
	}
	if balance := f.balanceOf(t, order.CreatorID); balance != 99000 {
		t.Fatalf("expected creator credited 99000, got %d", balance)
	}
}

func TestCallbackRedeliveryIsExactlyOnce(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-redeliver")
	f.adapter.event = completedEvent(txn.MerchantRef, 100000)

	for i := 0; i < 3; i++ {
		if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	if n := f.count(t, `SELECT COUNT(*) FROM user_access WHERE order_id = ?`, order.ID); n != 1 {
		t.Fatalf("expected 1 access grant after redelivery, got %d", n)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM invoices WHERE order_id = ?`, order.ID); n != 1 {
		t.Fatalf("expected 1 invoice after redelivery, got %d", n)
	}
	if balance := f.balanceOf(t, order.CreatorID); balance != 99000 {
		t.Fatalf("expected single credit of 99000, got %d", balance)
	}
}

func TestCallbackSecondTransactionCannotResettle(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	first := f.seedTxn(t, order, "mref-one")
	second := f.seedTxn(t, order, "mref-two")

	f.adapter.event = completedEvent(first.MerchantRef, 100000)
	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest first: %v", err)
	}

	f.adapter.event = completedEvent(second.MerchantRef, 100000)
	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest second: %v", err)
	}

	if balance := f.balanceOf(t, order.CreatorID); balance != 99000 {
		t.Fatalf("expected creator credited once, got %d", balance)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM invoices WHERE order_id = ?`, order.ID); n != 1 {
		t.Fatalf("expected 1 invoice, got %d", n)
	}
}

func TestCallbackFailedClosesOrder(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-fail")
	f.adapter.event = &domain.CallbackEvent{
		Provider:    "fakepay",
		MerchantRef: txn.MerchantRef,
		Status:      domain.StatusFailed,
	}

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, err := f.orders.FindByID(context.Background(), f.db, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != orderdomain.StatusFailed {
		t.Fatalf("expected failed order, got %s", got.Status)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM user_access WHERE order_id = ?`, order.ID); n != 0 {
		t.Fatalf("expected no access grant, got %d", n)
	}
}

func TestCallbackAmountMismatchDoesNotPay(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-mismatch")
	f.adapter.event = completedEvent(txn.MerchantRef, 50000)

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	gotTxn, err := f.txns.FindByMerchantRef(context.Background(), f.db, txn.MerchantRef)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if gotTxn.Status != domain.StatusFailed {
		t.Fatalf("expected failed transaction on amount mismatch, got %s", gotTxn.Status)
	}
	if balance := f.balanceOf(t, order.CreatorID); balance != 0 {
		t.Fatalf("expected no credit on mismatch, got %d", balance)
	}
}

func TestCallbackUnknownReferenceAcknowledged(t *testing.T) {
	f := setupReconciler(t)
	f.adapter.event = completedEvent("mref-unknown", 100000)

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("expected unknown reference to be acknowledged, got %v", err)
	}
}

func TestCallbackBadSignatureRejected(t *testing.T) {
	f := setupReconciler(t)
	f.adapter.verifyErr = domain.ErrInvalidSignature

	err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{})
	if err != domain.ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestCallbackUnknownProviderRejected(t *testing.T) {
	f := setupReconciler(t)

	err := f.svc.IngestCallback(context.Background(), "nopay", []byte(`{}`), http.Header{})
	if err != domain.ErrProviderNotFound {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestCallbackGrantUsesTierDuration(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 50000, 1000)

	tierID := f.node.Generate()
	if err := f.db.Exec(
		`INSERT INTO pricing_tiers (id, website_id, name, price, duration_days, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		tierID, order.WebsiteID, "Monthly", int64(50000), 30, time.Now().UTC(),
	).Error; err != nil {
		t.Fatalf("seed tier: %v", err)
	}
	if err := f.db.Exec(`UPDATE orders SET pricing_tier_id = ? WHERE id = ?`, tierID, order.ID).Error; err != nil {
		t.Fatalf("attach tier: %v", err)
	}

	txn := f.seedTxn(t, order, "mref-tier")
	f.adapter.event = completedEvent(txn.MerchantRef, order.TotalAmount)

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var expires sql.NullTime
	if err := f.db.Raw(`SELECT expires_at FROM user_access WHERE order_id = ?`, order.ID).Scan(&expires).Error; err != nil {
		t.Fatalf("read access expiry: %v", err)
	}
	if !expires.Valid {
		t.Fatal("expected timed access for tiered order")
	}
	if until := time.Until(expires.Time); until < 29*24*time.Hour || until > 31*24*time.Hour {
		t.Fatalf("expected roughly 30 days of access, got %s", until)
	}
}

func TestCallbackIgnoredStatusLeavesTransactionPending(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-ignored")
	f.adapter.parseErr = domain.ErrEventIgnored

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("expected ignored event to be acknowledged, got %v", err)
	}

	gotTxn, err := f.txns.FindByMerchantRef(context.Background(), f.db, txn.MerchantRef)
	if err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if gotTxn.Status != domain.StatusPending {
		t.Fatalf("expected transaction to stay pending, got %s", gotTxn.Status)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM user_access WHERE order_id = ?`, order.ID); n != 0 {
		t.Fatalf("expected no access grant for ignored event, got %d", n)
	}
}

func TestCallbackWithoutPaidAtStillRecordsTimestamp(t *testing.T) {
	f := setupReconciler(t)
	order := f.seedOrder(t, 99000, 1000)
	txn := f.seedTxn(t, order, "mref-nopaidat")
	event := completedEvent(txn.MerchantRef, order.TotalAmount)
	event.PaidAt = nil
	f.adapter.event = event

	if err := f.svc.IngestCallback(context.Background(), "fakepay", []byte(`{}`), http.Header{}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var paidAt sql.NullTime
	if err := f.db.Raw(`SELECT paid_at FROM payment_transactions WHERE id = ?`, txn.ID).Scan(&paidAt).Error; err != nil {
		t.Fatalf("read transaction paid_at: %v", err)
	}
	if !paidAt.Valid {
		t.Fatal("expected settled transaction to carry a paid_at")
	}
}
