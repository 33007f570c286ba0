package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	accessrepository "github.com/sitesell/sitesell/internal/access/repository"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
	catalogrepository "github.com/sitesell/sitesell/internal/catalog/repository"
	catalogservice "github.com/sitesell/sitesell/internal/catalog/service"
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/identity"
	"github.com/sitesell/sitesell/internal/order/domain"
	"github.com/sitesell/sitesell/internal/order/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var orderSchema = []string{
	`CREATE TABLE websites (
		id INTEGER PRIMARY KEY,
		creator_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		default_price INTEGER NOT NULL,
		currency TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
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
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func openTestDB(t *testing.T, schema []string) *gorm.DB {
	t.Helper()

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

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		Fees: config.FeeConfig{
			PlatformAmount:   1000,
			PayoutPercentBps: 0,
			PayoutMinAmount:  2500,
		},
		OrderTTL:        24 * time.Hour,
		DefaultCurrency: "IDR",
	}
}

func setupOrderService(t *testing.T, node *snowflake.Node) (domain.Service, catalogdomain.Service, *gorm.DB) {
	t.Helper()

	db := openTestDB(t, orderSchema)
	cfg := testConfig()

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  catalogrepository.Provide(),
	})

	orderSvc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Cfg:        cfg,
		Repo:       repository.Provide(),
		CatalogSvc: catalogSvc,
		AccessRepo: accessrepository.Provide(),
		FeePolicy:  domain.FlatFee{Amount: cfg.Fees.PlatformAmount},
	})
	return orderSvc, catalogSvc, db
}

func buyerCtx(id snowflake.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{UserID: id, Role: identity.RoleBuyer})
}

func creatorCtx(id snowflake.ID) context.Context {
	return identity.WithActor(context.Background(), identity.Actor{UserID: id, Role: identity.RoleCreator})
}

func seedWebsite(t *testing.T, catalogSvc catalogdomain.Service, creatorID snowflake.ID, price int64) catalogdomain.Website {
	t.Helper()

	website, err := catalogSvc.CreateWebsite(creatorCtx(creatorID), catalogdomain.CreateWebsiteRequest{
		Title:        fmt.Sprintf("Site %s", creatorID),
		DefaultPrice: price,
		Currency:     "IDR",
	})
	if err != nil {
		t.Fatalf("seed website: %v", err)
	}
	return website
}

func TestCreateOrderComputesTotals(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	order, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ItemPrice != 99000 {
		t.Fatalf("expected item price 99000, got %d", order.ItemPrice)
	}
	if order.PlatformFee != 1000 {
		t.Fatalf("expected platform fee 1000, got %d", order.PlatformFee)
	}
	if order.TotalAmount != 100000 {
		t.Fatalf("expected total 100000, got %d", order.TotalAmount)
	}
	if order.Status != domain.StatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected order number to be assigned")
	}
	if order.CreatorID != creatorID {
		t.Fatalf("expected creator %s on order, got %s", creatorID, order.CreatorID)
	}
}

func TestCreateOrderWithTierUsesTierPrice(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	days := 30
	tier, err := catalogSvc.CreateTier(creatorCtx(creatorID), catalogdomain.CreateTierRequest{
		WebsiteID:    website.ID.String(),
		Name:         "Monthly",
		Price:        50000,
		DurationDays: &days,
	})
	if err != nil {
		t.Fatalf("seed tier: %v", err)
	}

	order, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID:     website.ID.String(),
		PricingTierID: tier.ID.String(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ItemPrice != 50000 {
		t.Fatalf("expected tier price 50000, got %d", order.ItemPrice)
	}
	if order.TotalAmount != 51000 {
		t.Fatalf("expected total 51000, got %d", order.TotalAmount)
	}
	if order.PricingTierID == nil || *order.PricingTierID != tier.ID {
		t.Fatal("expected order to reference the tier")
	}
}

func TestCreateOrderRejectsSelfPurchase(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	_, err := svc.Create(creatorCtx(creatorID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != domain.ErrSelfPurchase {
		t.Fatalf("expected ErrSelfPurchase, got %v", err)
	}
}

func TestCreateOrderRejectsDuplicatePending(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	req := domain.CreateOrderRequest{WebsiteID: website.ID.String()}
	if _, err := svc.Create(buyerCtx(buyerID), req); err != nil {
		t.Fatalf("create first order: %v", err)
	}
	if _, err := svc.Create(buyerCtx(buyerID), req); err != domain.ErrPendingOrderExists {
		t.Fatalf("expected ErrPendingOrderExists, got %v", err)
	}
}

func TestCreateOrderRejectsExistingAccess(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, db := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	now := time.Now().UTC()
	access := &accessdomain.UserAccess{
		ID:        node.Generate(),
		UserID:    buyerID,
		WebsiteID: website.ID,
		OrderID:   node.Generate(),
		GrantedAt: now,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := accessrepository.Provide().Upsert(context.Background(), db, access); err != nil {
		t.Fatalf("seed access: %v", err)
	}

	_, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != domain.ErrAlreadyOwned {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}
}

func TestCancelOrderIsIdempotent(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	order, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	first, err := svc.Cancel(buyerCtx(buyerID), order.ID.String())
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if first.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", first.Status)
	}

	second, err := svc.Cancel(buyerCtx(buyerID), order.ID.String())
	if err != nil {
		t.Fatalf("cancel again: %v", err)
	}
	if second.Status != domain.StatusCancelled {
		t.Fatalf("expected cancel to stay cancelled, got %s", second.Status)
	}
}

func TestGetOrderExpiresLazily(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, db := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	order, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	if err := db.Exec(`UPDATE orders SET expires_at = ? WHERE id = ?`, past, order.ID).Error; err != nil {
		t.Fatalf("age order: %v", err)
	}

	got, err := svc.GetByID(buyerCtx(buyerID), order.ID.String())
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.StatusExpired {
		t.Fatalf("expected expired order, got %s", got.Status)
	}
}

func TestGetOrderHiddenFromStrangers(t *testing.T) {
	node := mustNode(t)
	svc, catalogSvc, _ := setupOrderService(t, node)

	creatorID := node.Generate()
	buyerID := node.Generate()
	strangerID := node.Generate()
	website := seedWebsite(t, catalogSvc, creatorID, 99000)

	order, err := svc.Create(buyerCtx(buyerID), domain.CreateOrderRequest{
		WebsiteID: website.ID.String(),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := svc.GetByID(buyerCtx(strangerID), order.ID.String()); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for stranger, got %v", err)
	}
	if _, err := svc.GetByID(creatorCtx(creatorID), order.ID.String()); err != nil {
		t.Fatalf("creator should see order: %v", err)
	}
}
