package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accessdomain "github.com/sitesell/sitesell/internal/access/domain"
	catalogdomain "github.com/sitesell/sitesell/internal/catalog/domain"
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/identity"
	"github.com/sitesell/sitesell/internal/order/domain"
	"github.com/sitesell/sitesell/pkg/refnum"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Repo       domain.Repository
	CatalogSvc catalogdomain.Service
	AccessRepo accessdomain.Repository
	FeePolicy  domain.FeePolicy
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	catalogSvc catalogdomain.Service
	accessRepo accessdomain.Repository
	feePolicy  domain.FeePolicy
	orderTTL   time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		catalogSvc: p.CatalogSvc,
		accessRepo: p.AccessRepo,
		feePolicy:  p.FeePolicy,
		orderTTL:   p.Cfg.OrderTTL,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	actor, err := identity.Require(ctx, identity.RoleBuyer, identity.RoleCreator)
	if err != nil {
		return domain.Order{}, err
	}

	websiteID, err := snowflake.ParseString(strings.TrimSpace(req.WebsiteID))
	if err != nil || websiteID == 0 {
		return domain.Order{}, domain.ErrInvalidID
	}

	website, err := s.catalogSvc.GetWebsite(ctx, websiteID)
	if err != nil {
		return domain.Order{}, err
	}
	if !website.IsActive {
		return domain.Order{}, domain.ErrWebsiteInactive
	}
	if website.CreatorID == actor.UserID {
		return domain.Order{}, domain.ErrSelfPurchase
	}

	itemName := website.Title
	itemPrice := website.DefaultPrice
	var tierID *snowflake.ID
	if strings.TrimSpace(req.PricingTierID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.PricingTierID))
		if err != nil || parsed == 0 {
			return domain.Order{}, domain.ErrInvalidID
		}
		tier, err := s.catalogSvc.GetTier(ctx, parsed)
		if err != nil {
			return domain.Order{}, err
		}
		if tier.WebsiteID != websiteID || !tier.IsActive {
			return domain.Order{}, domain.ErrTierMismatch
		}
		itemName = fmt.Sprintf("%s - %s", website.Title, tier.Name)
		itemPrice = tier.Price
		tierID = &parsed
	}

	now := time.Now().UTC()

	active, err := s.accessRepo.FindActive(ctx, s.db, actor.UserID, websiteID, now)
	if err != nil {
		return domain.Order{}, err
	}
	if active != nil {
		return domain.Order{}, domain.ErrAlreadyOwned
	}

	pending, err := s.repo.FindPendingByBuyerAndWebsite(ctx, s.db, actor.UserID, websiteID, now)
	if err != nil {
		return domain.Order{}, err
	}
	if pending != nil {
		return domain.Order{}, domain.ErrPendingOrderExists
	}

	fee := s.feePolicy.PlatformFee(itemPrice)
	id := s.genID.Generate()
	order := domain.Order{
		ID:            id,
		OrderNumber:   refnum.Format(refnum.PrefixOrder, now, id),
		BuyerID:       actor.UserID,
		WebsiteID:     websiteID,
		PricingTierID: tierID,
		CreatorID:     website.CreatorID,
		ItemName:      itemName,
		ItemPrice:     itemPrice,
		PlatformFee:   fee,
		TotalAmount:   itemPrice + fee,
		Currency:      website.Currency,
		Status:        domain.StatusPending,
		RefundStatus:  domain.RefundStatusNone,
		ExpiresAt:     now.Add(s.orderTTL),
		Notes:         strings.TrimSpace(req.Notes),
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (domain.Order, error) {
	actor, err := identity.Require(ctx, identity.RoleBuyer, identity.RoleCreator)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if actor.Role != identity.RoleAdmin && order.BuyerID != actor.UserID {
		return domain.Order{}, domain.ErrNotFound
	}

	order = s.lazyExpire(ctx, order)
	if order.Status != domain.StatusPending {
		// Repeat cancellation and cancellation of terminal orders are
		// acknowledged without a state change.
		return order, nil
	}

	now := time.Now().UTC()
	moved, err := s.repo.TransitionStatus(ctx, s.db, order.ID, domain.StatusPending, domain.StatusCancelled, now)
	if err != nil {
		return domain.Order{}, err
	}
	if !moved {
		// Lost a race against a webhook or expiry; report current state.
		return s.load(ctx, id)
	}
	order.Status = domain.StatusCancelled
	order.UpdatedAt = now
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Order, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if actor.Role != identity.RoleAdmin && order.BuyerID != actor.UserID && order.CreatorID != actor.UserID {
		return domain.Order{}, domain.ErrNotFound
	}

	return s.lazyExpire(ctx, order), nil
}

func (s *Service) ListMine(ctx context.Context) ([]domain.Order, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	if actor.Role == identity.RoleCreator {
		orders, err = s.repo.ListByCreator(ctx, s.db, actor.UserID)
	} else {
		orders, err = s.repo.ListByBuyer(ctx, s.db, actor.UserID)
	}
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i] = s.lazyExpire(ctx, orders[i])
	}
	return orders, nil
}

func (s *Service) load(ctx context.Context, id string) (domain.Order, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Order{}, domain.ErrInvalidID
	}
	order, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

// lazyExpire flips a pending order past its TTL to expired before it is
// reported anywhere. A racing webhook wins: the guarded update only
// moves rows still pending.
func (s *Service) lazyExpire(ctx context.Context, order domain.Order) domain.Order {
	now := time.Now().UTC()
	if order.Status != domain.StatusPending || now.Before(order.ExpiresAt) {
		return order
	}

	moved, err := s.repo.TransitionStatus(ctx, s.db, order.ID, domain.StatusPending, domain.StatusExpired, now)
	if err != nil {
		s.log.Warn("failed to expire order", zap.String("order_id", order.ID.String()), zap.Error(err))
		return order
	}
	if moved {
		order.Status = domain.StatusExpired
		order.UpdatedAt = now
		return order
	}

	refreshed, err := s.repo.FindByID(ctx, s.db, order.ID)
	if err != nil || refreshed == nil {
		return order
	}
	return *refreshed
}
