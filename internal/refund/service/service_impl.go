package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	balancedomain "github.com/sitesell/sitesell/internal/balance/domain"
	"github.com/sitesell/sitesell/internal/identity"
	notifdomain "github.com/sitesell/sitesell/internal/notification/domain"
	orderdomain "github.com/sitesell/sitesell/internal/order/domain"
	"github.com/sitesell/sitesell/internal/refund/domain"
	"github.com/sitesell/sitesell/pkg/refnum"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Orders   orderdomain.Repository
	Access   accessdomain.Granter
	Ledger   balancedomain.Ledger
	Notifier notifdomain.Service
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	orders   orderdomain.Repository
	access   accessdomain.Granter
	ledger   balancedomain.Ledger
	notifier notifdomain.Service
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("refund.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		orders:   p.Orders,
		access:   p.Access,
		ledger:   p.Ledger,
		notifier: p.Notifier,
	}
}

func (s *service) Request(ctx context.Context, in domain.RequestRefundInput) (*domain.RefundRequest, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, s.db, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}
	if actor.Role != identity.RoleAdmin && order.BuyerID != actor.UserID {
		return nil, orderdomain.ErrNotFound
	}
	if order.Status != orderdomain.StatusPaid {
		return nil, domain.ErrOrderNotRefundable
	}

	amount := in.Amount
	if amount == 0 {
		amount = order.RemainingRefundable()
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if amount > order.RemainingRefundable() {
		return nil, domain.ErrAmountExceedsOrder
	}

	open, err := s.repo.FindOpenByOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, domain.ErrRequestOpen
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	refund := &domain.RefundRequest{
		ID:           id,
		RefundNumber: refnum.Format(refnum.PrefixRefund, now, id),
		OrderID:      order.ID,
		RequestedBy:  actor.UserID,
		Amount:       amount,
		Currency:     order.Currency,
		Reason:       in.Reason,
		Status:       domain.StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, refund); err != nil {
			return err
		}
		return s.orders.SetRefundStatus(ctx, tx, order.ID, orderdomain.RefundStatusRequested, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("refund requested",
		zap.String("refund_number", refund.RefundNumber),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount", amount),
	)
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindRefundRequested,
		RecipientID: order.CreatorID,
		Subject:     refund.RefundNumber,
		Data: map[string]interface{}{
			"order_number": order.OrderNumber,
			"amount":       strconv.FormatInt(amount, 10),
		},
	})
	return refund, nil
}

func (s *service) Approve(ctx context.Context, refundID snowflake.ID, in domain.DecisionInput) (*domain.RefundRequest, error) {
	admin, err := identity.Require(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	refund, err := s.mustFind(ctx, refundID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, refund.ID, domain.StatusRequested, domain.StatusApproved, admin.UserID, in.Note, now)
		if err != nil {
			return err
		}
		if !ok {
			if refund.Status.Terminal() {
				return domain.ErrAlreadyDecided
			}
			return domain.ErrNotRequested
		}
		return s.orders.SetRefundStatus(ctx, tx, refund.OrderID, orderdomain.RefundStatusApproved, now)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.db, refundID)
}

func (s *service) Reject(ctx context.Context, refundID snowflake.ID, in domain.DecisionInput) (*domain.RefundRequest, error) {
	admin, err := identity.Require(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	refund, err := s.mustFind(ctx, refundID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, refund.ID, domain.StatusRequested, domain.StatusRejected, admin.UserID, in.Note, now)
		if err != nil {
			return err
		}
		if !ok {
			if refund.Status.Terminal() {
				return domain.ErrAlreadyDecided
			}
			return domain.ErrNotRequested
		}
		// The order is eligible for a fresh request after a rejection.
		return s.orders.SetRefundStatus(ctx, tx, refund.OrderID, orderdomain.RefundStatusNone, now)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindRefundRejected,
		RecipientID: refund.RequestedBy,
		Subject:     refund.RefundNumber,
		Data:        map[string]interface{}{"note": in.Note},
	})
	return s.repo.FindByID(ctx, s.db, refundID)
}

// Complete settles an approved refund: the order absorbs the refunded
// amount, the buyer loses access once fully refunded, and the creator's
// balance gives back the earned portion. All of it in one transaction;
// money movement at the gateway is out of band.
func (s *service) Complete(ctx context.Context, refundID snowflake.ID) (*domain.RefundRequest, error) {
	admin, err := identity.Require(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	refund, err := s.mustFind(ctx, refundID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, s.db, refund.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, orderdomain.ErrNotFound
	}

	// The creator only earned item_price; the platform fee came back out
	// of the platform's cut. Cap the debit at what the creator still
	// holds from this order.
	earnedLeft := order.ItemPrice - order.RefundedAmount
	if earnedLeft < 0 {
		earnedLeft = 0
	}
	debit := refund.Amount
	if debit > earnedLeft {
		debit = earnedLeft
	}
	fullyRefunded := order.RefundedAmount+refund.Amount >= order.TotalAmount

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, refund.ID, domain.StatusApproved, domain.StatusCompleted, admin.UserID, "", now)
		if err != nil {
			return err
		}
		if !ok {
			if refund.Status.Terminal() {
				return domain.ErrAlreadyDecided
			}
			return domain.ErrNotApproved
		}

		applied, err := s.orders.ApplyRefund(ctx, tx, order.ID, refund.Amount, now)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrAmountExceedsOrder
		}

		if fullyRefunded {
			if err := s.access.RevokeByOrder(ctx, tx, order.ID, "order refunded"); err != nil {
				return err
			}
		}
		return s.ledger.DebitForRefund(ctx, tx, order.CreatorID, debit)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("refund completed",
		zap.String("refund_number", refund.RefundNumber),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("amount", refund.Amount),
		zap.Int64("creator_debit", debit),
	)
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindRefundCompleted,
		RecipientID: refund.RequestedBy,
		Subject:     refund.RefundNumber,
		Data: map[string]interface{}{
			"order_number": order.OrderNumber,
			"amount":       strconv.FormatInt(refund.Amount, 10),
		},
	})
	return s.repo.FindByID(ctx, s.db, refundID)
}

func (s *service) GetByID(ctx context.Context, refundID snowflake.ID) (*domain.RefundRequest, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	refund, err := s.repo.FindByID(ctx, s.db, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, domain.ErrNotFound
	}
	if actor.Role != identity.RoleAdmin && refund.RequestedBy != actor.UserID {
		return nil, domain.ErrNotFound
	}
	return refund, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID snowflake.ID) ([]domain.RefundRequest, error) {
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
	if actor.Role != identity.RoleAdmin && order.BuyerID != actor.UserID && order.CreatorID != actor.UserID {
		return nil, orderdomain.ErrNotFound
	}
	return s.repo.ListByOrder(ctx, s.db, orderID)
}

func (s *service) mustFind(ctx context.Context, refundID snowflake.ID) (*domain.RefundRequest, error) {
	refund, err := s.repo.FindByID(ctx, s.db, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, domain.ErrNotFound
	}
	return refund, nil
}
