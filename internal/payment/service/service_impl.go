package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/identity"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	"github.com/sitesell/sitesell/internal/payment/adapters"
	"github.com/sitesell/sitesell/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Repo     domain.Repository
	Orders   orderdomain.Repository
	Adapters *adapters.Registry
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	repo     domain.Repository
	orders   orderdomain.Repository
	adapters *adapters.Registry
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		repo:     p.Repo,
		orders:   p.Orders,
		adapters: p.Adapters,
	}
}

func (s *service) Initiate(ctx context.Context, in domain.InitiatePaymentInput) (*domain.Transaction, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, s.db, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.BuyerID != actor.UserID {
		return nil, orderdomain.ErrNotFound
	}

	now := time.Now().UTC()
	if order.Status == orderdomain.StatusPending && now.After(order.ExpiresAt) {
		if _, err := s.orders.TransitionStatus(ctx, s.db, order.ID, orderdomain.StatusPending, orderdomain.StatusExpired, now); err != nil {
			return nil, err
		}
		return nil, domain.ErrOrderNotPayable
	}
	if order.Status != orderdomain.StatusPending {
		return nil, domain.ErrOrderNotPayable
	}

	// A live pending checkout is reused so the gateway never sees two
	// open sessions for one order.
	existing, err := s.repo.FindPendingByOrder(ctx, s.db, order.ID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	adapter, err := s.adapters.Get(s.cfg.Gateway.Provider)
	if err != nil {
		return nil, err
	}

	merchantRef := uuid.NewString()
	session, err := adapter.CreateCheckout(ctx, domain.CheckoutRequest{
		MerchantRef: merchantRef,
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		ItemName:    order.ItemName,
		Method:      in.Method,
		ExpiresAt:   order.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:              s.genID.Generate(),
		MerchantRef:     merchantRef,
		OrderID:         order.ID,
		Provider:        adapter.Provider(),
		ProviderRef:     session.ProviderRef,
		Method:          session.Method,
		Amount:          order.TotalAmount,
		Currency:        order.Currency,
		Status:          domain.StatusPending,
		PaymentURL:      session.PaymentURL,
		GatewayResponse: session.RawResponse,
		ExpiresAt:       order.ExpiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, txn); err != nil {
		return nil, err
	}

	s.log.Info("checkout opened",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", txn.Provider),
		zap.String("merchant_ref", merchantRef),
		zap.Int64("amount", txn.Amount),
	)
	return txn, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID snowflake.ID) ([]domain.Transaction, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	if actor.Role != identity.RoleAdmin && order.BuyerID != actor.UserID {
		return nil, orderdomain.ErrNotFound
	}
	return s.repo.ListByOrder(ctx, s.db, orderID)
}
