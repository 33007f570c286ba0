package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	balancedomain "github.com/sitesell/sitesell/internal/balance/domain"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
	invoicedomain "github.com/sitesell/sitesell/internal/invoice/domain"
	notifdomain "github.com/sitesell/sitesell/internal/notification/domain"
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
	Repo     domain.Repository
	Orders   orderdomain.Repository
	Catalog  catalogdomain.Repository
	Access   accessdomain.Granter
	Invoices invoicedomain.Issuer
	Ledger   balancedomain.Ledger
	Notifier notifdomain.Service
	Adapters *adapters.Registry
}

// Service reconciles gateway callbacks against orders. Gateways deliver
// at least once; the transaction-status compare-and-swap inside one DB
// transaction makes the grant, invoice, and balance credit happen
// exactly once.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	orders   orderdomain.Repository
	catalog  catalogdomain.Repository
	access   accessdomain.Granter
	invoices invoicedomain.Issuer
	ledger   balancedomain.Ledger
	notifier notifdomain.Service
	adapters *adapters.Registry
}

func New(p Params) domain.Reconciler {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.webhook"),
		repo:     p.Repo,
		orders:   p.Orders,
		catalog:  p.Catalog,
		access:   p.Access,
		invoices: p.Invoices,
		ledger:   p.Ledger,
		notifier: p.Notifier,
		adapters: p.Adapters,
	}
}

func (s *Service) IngestCallback(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return err
	}
	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.log.Warn("callback rejected", zap.String("provider", provider), zap.Error(err))
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if err == domain.ErrEventIgnored {
			// The transaction stays pending until a status we act on
			// arrives.
			s.log.Warn("callback with unmapped status acknowledged",
				zap.String("provider", provider),
			)
			return nil
		}
		return err
	}

	txn, err := s.repo.FindByMerchantRef(ctx, s.db, event.MerchantRef)
	if err != nil {
		return err
	}
	if txn == nil {
		// Unknown reference: acknowledge so the gateway stops retrying a
		// callback we can never act on.
		s.log.Warn("callback for unknown reference acknowledged",
			zap.String("provider", provider),
			zap.String("merchant_ref", event.MerchantRef),
		)
		return nil
	}

	switch event.Status {
	case domain.StatusCompleted:
		return s.settleCompleted(ctx, txn, event)
	case domain.StatusFailed, domain.StatusExpired:
		return s.settleTerminal(ctx, txn, event)
	default:
		s.log.Warn("callback status not actionable, transaction left pending",
			zap.String("provider", provider),
			zap.String("merchant_ref", event.MerchantRef),
			zap.String("status", string(event.Status)),
		)
		return nil
	}
}

func (s *Service) settleCompleted(ctx context.Context, txn *domain.Transaction, event *domain.CallbackEvent) error {
	if event.Amount != 0 && event.Amount != txn.Amount {
		s.log.Error("callback amount does not match transaction",
			zap.String("merchant_ref", txn.MerchantRef),
			zap.Int64("expected", txn.Amount),
			zap.Int64("received", event.Amount),
		)
		return s.settleTerminal(ctx, txn, &domain.CallbackEvent{
			Provider:    event.Provider,
			MerchantRef: event.MerchantRef,
			ProviderRef: event.ProviderRef,
			Method:      event.Method,
			Status:      domain.StatusFailed,
			RawPayload:  event.RawPayload,
		})
	}

	order, err := s.orders.FindByID(ctx, s.db, txn.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		s.log.Error("transaction references missing order",
			zap.String("merchant_ref", txn.MerchantRef),
			zap.Int64("order_id", int64(txn.OrderID)),
		)
		return nil
	}

	var durationDays *int
	if order.PricingTierID != nil {
		tier, err := s.catalog.FindTierByID(ctx, s.db, *order.PricingTierID)
		if err != nil {
			return err
		}
		if tier != nil {
			durationDays = tier.DurationDays
		}
	}

	paidAt := time.Now().UTC()
	if event.PaidAt != nil {
		paidAt = *event.PaidAt
	}

	var settled, orderPaid bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settled, err = s.repo.Settle(ctx, tx, txn.ID, domain.StatusCompleted, event.ProviderRef, event.Method, event.RawPayload, &paidAt, paidAt)
		if err != nil {
			return err
		}
		if !settled {
			// Redelivery of a settled transaction, nothing left to do.
			return nil
		}

		orderPaid, err = s.orders.MarkPaid(ctx, tx, order.ID, paidAt)
		if err != nil {
			return err
		}
		if !orderPaid {
			// Another transaction already settled this order, or it is
			// cancelled. Paid never regresses, so record the settlement
			// and stop before any side effect runs twice.
			return nil
		}

		if _, err := s.access.Grant(ctx, tx, accessdomain.GrantRequest{
			UserID:        order.BuyerID,
			WebsiteID:     order.WebsiteID,
			OrderID:       order.ID,
			PricingTierID: order.PricingTierID,
			DurationDays:  durationDays,
		}); err != nil {
			return err
		}

		if _, err := s.invoices.IssueForOrder(ctx, tx, invoicedomain.IssueRequest{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			BuyerID:     order.BuyerID,
			CreatorID:   order.CreatorID,
			ItemName:    order.ItemName,
			ItemPrice:   order.ItemPrice,
			PlatformFee: order.PlatformFee,
			Total:       order.TotalAmount,
			Currency:    order.Currency,
		}); err != nil {
			return err
		}

		// The creator earns the item price; the platform fee stays with
		// the platform.
		return s.ledger.Credit(ctx, tx, order.CreatorID, order.ItemPrice)
	})
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}
	if !orderPaid {
		s.log.Warn("settled transaction for already-settled order",
			zap.String("merchant_ref", txn.MerchantRef),
			zap.String("order_number", order.OrderNumber),
		)
		return nil
	}

	s.log.Info("order settled",
		zap.String("order_number", order.OrderNumber),
		zap.String("provider", event.Provider),
		zap.String("merchant_ref", txn.MerchantRef),
		zap.Int64("amount", txn.Amount),
	)
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindOrderPaid,
		RecipientID: order.BuyerID,
		Subject:     order.OrderNumber,
		Data:        map[string]interface{}{"item_name": order.ItemName},
	})
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindAccessGranted,
		RecipientID: order.BuyerID,
		Subject:     order.ItemName,
		Data:        map[string]interface{}{"order_number": order.OrderNumber},
	})
	return nil
}

func (s *Service) settleTerminal(ctx context.Context, txn *domain.Transaction, event *domain.CallbackEvent) error {
	now := time.Now().UTC()
	var settled bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		settled, err = s.repo.Settle(ctx, tx, txn.ID, event.Status, event.ProviderRef, event.Method, event.RawPayload, nil, now)
		if err != nil {
			return err
		}
		if !settled {
			return nil
		}
		target := orderdomain.StatusFailed
		if event.Status == domain.StatusExpired {
			target = orderdomain.StatusExpired
		}
		// Best effort: the order may have been paid through another
		// transaction in the meantime, and paid never regresses.
		_, err = s.orders.TransitionStatus(ctx, tx, txn.OrderID, orderdomain.StatusPending, target, now)
		return err
	})
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}

	s.log.Info("transaction closed without payment",
		zap.String("merchant_ref", txn.MerchantRef),
		zap.String("status", string(event.Status)),
	)
	if event.Status == domain.StatusFailed {
		order, err := s.orders.FindByID(ctx, s.db, txn.OrderID)
		if err == nil && order != nil {
			s.notifier.Notify(ctx, notifdomain.Event{
				Kind:        notifdomain.KindPaymentFailed,
				RecipientID: order.BuyerID,
				Subject:     order.OrderNumber,
				Data:        map[string]interface{}{"provider": event.Provider},
			})
		}
	}
	return nil
}
