package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/invoice/domain"
	"github.com/sitesell/sitesell/pkg/refnum"
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

func New(p Params) domain.Issuer {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) IssueForOrder(ctx context.Context, tx *gorm.DB, req domain.IssueRequest) (domain.Invoice, error) {
	if req.OrderID == 0 || req.BuyerID == 0 || req.CreatorID == 0 || req.Total <= 0 {
		return domain.Invoice{}, domain.ErrInvalidRequest
	}

	lines := []domain.LineItem{
		{Description: req.ItemName, Quantity: 1, UnitPrice: req.ItemPrice, Amount: req.ItemPrice},
	}
	if req.PlatformFee > 0 {
		lines = append(lines, domain.LineItem{
			Description: "Platform fee",
			Quantity:    1,
			UnitPrice:   req.PlatformFee,
			Amount:      req.PlatformFee,
		})
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	invoice := domain.Invoice{
		ID:            id,
		InvoiceNumber: refnum.Format(refnum.PrefixInvoice, now, id),
		OrderID:       req.OrderID,
		BuyerID:       req.BuyerID,
		CreatorID:     req.CreatorID,
		LineItems:     datatypes.JSON(encoded),
		Subtotal:      req.ItemPrice,
		PlatformFee:   req.PlatformFee,
		Total:         req.Total,
		Currency:      req.Currency,
		Status:        domain.StatusPaid,
		IssuedAt:      now,
		CreatedAt:     now,
	}

	inserted, err := s.repo.InsertIgnore(ctx, tx, &invoice)
	if err != nil {
		return domain.Invoice{}, err
	}
	if !inserted {
		existing, err := s.repo.FindByOrder(ctx, tx, req.OrderID)
		if err != nil {
			return domain.Invoice{}, err
		}
		if existing == nil {
			return domain.Invoice{}, domain.ErrNotFound
		}
		return *existing, nil
	}

	return invoice, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByOrder(ctx, s.db, orderID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID snowflake.ID) ([]domain.Invoice, error) {
	return s.repo.ListByBuyer(ctx, s.db, buyerID)
}
