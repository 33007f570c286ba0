package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/access/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Granter {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("access.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Grant upserts the entitlement for (user, website). An existing live
// grant is extended from its current expiry instead of being replaced,
// so re-purchasing stacks time. The upsert keeps the operation safe to
// retry even though the reconciler already guarantees at-most-once.
func (s *Service) Grant(ctx context.Context, tx *gorm.DB, req domain.GrantRequest) (domain.UserAccess, error) {
	if req.UserID == 0 || req.WebsiteID == 0 || req.OrderID == 0 {
		return domain.UserAccess{}, domain.ErrInvalidGrant
	}
	if req.DurationDays != nil && *req.DurationDays <= 0 {
		return domain.UserAccess{}, domain.ErrInvalidGrant
	}

	now := time.Now().UTC()

	var expiresAt *time.Time
	if req.DurationDays != nil {
		base := now
		existing, err := s.repo.Find(ctx, tx, req.UserID, req.WebsiteID)
		if err != nil {
			return domain.UserAccess{}, err
		}
		if existing != nil && existing.Live(now) && existing.ExpiresAt != nil && existing.ExpiresAt.After(base) {
			base = *existing.ExpiresAt
		}
		expiry := base.AddDate(0, 0, *req.DurationDays)
		expiresAt = &expiry
	}

	access := domain.UserAccess{
		ID:            s.genID.Generate(),
		UserID:        req.UserID,
		WebsiteID:     req.WebsiteID,
		OrderID:       req.OrderID,
		PricingTierID: req.PricingTierID,
		GrantedAt:     now,
		ExpiresAt:     expiresAt,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, tx, &access); err != nil {
		return domain.UserAccess{}, err
	}

	return access, nil
}

func (s *Service) RevokeByOrder(ctx context.Context, tx *gorm.DB, orderID snowflake.ID, reason string) error {
	access, err := s.repo.FindByOrder(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if access == nil {
		// Nothing to revoke; the grant may never have happened.
		s.log.Warn("no access found for revocation", zap.String("order_id", orderID.String()))
		return nil
	}
	return s.repo.Revoke(ctx, tx, access.ID, reason, time.Now().UTC())
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]domain.UserAccess, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}
