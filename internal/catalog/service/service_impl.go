package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/sitesell/sitesell/internal/catalog/domain"
	"github.com/sitesell/sitesell/internal/identity"
	pkgdb "github.com/sitesell/sitesell/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) CreateWebsite(ctx context.Context, req domain.CreateWebsiteRequest) (domain.Website, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return domain.Website{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Website{}, domain.ErrInvalidTitle
	}
	if req.DefaultPrice <= 0 {
		return domain.Website{}, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return domain.Website{}, domain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	website := domain.Website{
		ID:           s.genID.Generate(),
		CreatorID:    actor.UserID,
		Title:        title,
		Slug:         slug.Make(title),
		Description:  strings.TrimSpace(req.Description),
		DefaultPrice: req.DefaultPrice,
		Currency:     currency,
		IsActive:     true,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.InsertWebsite(ctx, s.db, &website); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Website{}, domain.ErrSlugTaken
		}
		return domain.Website{}, err
	}

	return website, nil
}

func (s *Service) CreateTier(ctx context.Context, req domain.CreateTierRequest) (domain.PricingTier, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return domain.PricingTier{}, err
	}

	websiteID, err := snowflake.ParseString(strings.TrimSpace(req.WebsiteID))
	if err != nil || websiteID == 0 {
		return domain.PricingTier{}, domain.ErrInvalidWebsite
	}
	website, err := s.repo.FindWebsiteByID(ctx, s.db, websiteID)
	if err != nil {
		return domain.PricingTier{}, err
	}
	if website == nil {
		return domain.PricingTier{}, domain.ErrNotFound
	}
	if actor.Role != identity.RoleAdmin && website.CreatorID != actor.UserID {
		return domain.PricingTier{}, identity.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.PricingTier{}, domain.ErrInvalidTitle
	}
	if req.Price <= 0 {
		return domain.PricingTier{}, domain.ErrInvalidPrice
	}
	if req.DurationDays != nil && *req.DurationDays <= 0 {
		return domain.PricingTier{}, domain.ErrInvalidPrice
	}

	tier := domain.PricingTier{
		ID:           s.genID.Generate(),
		WebsiteID:    websiteID,
		Name:         name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.InsertTier(ctx, s.db, &tier); err != nil {
		return domain.PricingTier{}, err
	}

	return tier, nil
}

func (s *Service) GetWebsite(ctx context.Context, id snowflake.ID) (domain.Website, error) {
	website, err := s.repo.FindWebsiteByID(ctx, s.db, id)
	if err != nil {
		return domain.Website{}, err
	}
	if website == nil {
		return domain.Website{}, domain.ErrNotFound
	}
	return *website, nil
}

func (s *Service) GetTier(ctx context.Context, id snowflake.ID) (domain.PricingTier, error) {
	tier, err := s.repo.FindTierByID(ctx, s.db, id)
	if err != nil {
		return domain.PricingTier{}, err
	}
	if tier == nil {
		return domain.PricingTier{}, domain.ErrTierNotFound
	}
	return *tier, nil
}

func (s *Service) ListWebsites(ctx context.Context) ([]domain.Website, error) {
	return s.repo.ListActiveWebsites(ctx, s.db)
}
