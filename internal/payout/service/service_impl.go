package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/sitesell/sitesell/internal/balance/domain"
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/identity"
	notifdomain "github.com/sitesell/sitesell/internal/notification/domain"
	"github.com/sitesell/sitesell/internal/payout/domain"
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
	Cfg      config.Config
	Repo     domain.Repository
	Fees     domain.FeePolicy
	Ledger   balancedomain.Ledger
	Notifier notifdomain.Service
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	repo     domain.Repository
	fees     domain.FeePolicy
	ledger   balancedomain.Ledger
	notifier notifdomain.Service
}

func New(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("payout.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		repo:     p.Repo,
		fees:     p.Fees,
		ledger:   p.Ledger,
		notifier: p.Notifier,
	}
}

func (s *service) AddBankAccount(ctx context.Context, in domain.AddBankAccountInput) (*domain.BankAccount, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return nil, err
	}
	if in.BankCode == "" || in.AccountNumber == "" || in.AccountName == "" {
		return nil, domain.ErrBankAccountNotFound
	}

	now := time.Now().UTC()
	account := &domain.BankAccount{
		ID:            s.genID.Generate(),
		CreatorID:     actor.UserID,
		BankCode:      in.BankCode,
		BankName:      in.BankName,
		AccountNumber: in.AccountNumber,
		AccountName:   in.AccountName,
		IsDefault:     in.IsDefault,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsDefault {
			if err := s.repo.ClearDefaultBankAccount(ctx, tx, actor.UserID); err != nil {
				return err
			}
		}
		return s.repo.InsertBankAccount(ctx, tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBankAccounts(ctx, s.db, actor.UserID)
}

func (s *service) Request(ctx context.Context, in domain.RequestPayoutInput) (*domain.CreatorPayout, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.resolveBankAccount(ctx, actor.UserID, in.BankAccountID)
	if err != nil {
		return nil, err
	}

	withdrawable, err := s.ledger.Withdrawable(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if in.Amount > withdrawable {
		return nil, domain.ErrInsufficientBalance
	}

	fee := s.fees.PayoutFee(in.Amount)
	net := in.Amount - fee
	if net <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	id := s.genID.Generate()
	payout := &domain.CreatorPayout{
		ID:            id,
		PayoutNumber:  refnum.Format(refnum.PrefixPayout, now, id),
		CreatorID:     actor.UserID,
		GrossAmount:   in.Amount,
		FeeAmount:     fee,
		NetAmount:     net,
		Currency:      s.cfg.DefaultCurrency,
		Status:        domain.StatusPending,
		BankCode:      account.BankCode,
		BankName:      account.BankName,
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, payout); err != nil {
		return nil, err
	}

	s.log.Info("payout requested",
		zap.String("payout_number", payout.PayoutNumber),
		zap.Int64("creator_id", int64(actor.UserID)),
		zap.Int64("gross_amount", payout.GrossAmount),
		zap.Int64("net_amount", payout.NetAmount),
	)
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        notifdomain.KindPayoutRequested,
		RecipientID: actor.UserID,
		Subject:     payout.PayoutNumber,
		Data: map[string]interface{}{
			"gross_amount": strconv.FormatInt(payout.GrossAmount, 10),
			"net_amount":   strconv.FormatInt(payout.NetAmount, 10),
		},
	})
	return payout, nil
}

func (s *service) resolveBankAccount(ctx context.Context, creatorID, accountID snowflake.ID) (*domain.BankAccount, error) {
	if accountID != 0 {
		account, err := s.repo.FindBankAccount(ctx, s.db, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil || account.CreatorID != creatorID {
			return nil, domain.ErrBankAccountNotFound
		}
		return account, nil
	}

	accounts, err := s.repo.ListBankAccounts(ctx, s.db, creatorID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoBankAccount
	}
	return &accounts[0], nil
}

func (s *service) Process(ctx context.Context, payoutID snowflake.ID, in domain.ProcessPayoutInput) (*domain.CreatorPayout, error) {
	admin, err := identity.Require(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}

	payout, err := s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.ErrNotFound
	}
	if payout.Status.Terminal() {
		return nil, domain.ErrAlreadyProcessed
	}

	var target domain.Status
	switch in.Decision {
	case domain.DecisionApprove:
		target = domain.StatusCompleted
	case domain.DecisionReject:
		target = domain.StatusFailed
	default:
		return nil, domain.ErrInvalidDecision
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, payout.ID, payout.Status, target, admin.UserID, in.Notes, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyProcessed
		}
		if target == domain.StatusCompleted {
			return s.ledger.CompleteWithdrawal(ctx, tx, payout.CreatorID, payout.GrossAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payout, err = s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return nil, err
	}

	kind := notifdomain.KindPayoutCompleted
	if target == domain.StatusFailed {
		kind = notifdomain.KindPayoutFailed
	}
	s.log.Info("payout processed",
		zap.String("payout_number", payout.PayoutNumber),
		zap.String("status", string(payout.Status)),
		zap.Int64("processed_by", int64(admin.UserID)),
	)
	s.notifier.Notify(ctx, notifdomain.Event{
		Kind:        kind,
		RecipientID: payout.CreatorID,
		Subject:     payout.PayoutNumber,
		Data: map[string]interface{}{
			"net_amount": strconv.FormatInt(payout.NetAmount, 10),
			"notes":      in.Notes,
		},
	})
	return payout, nil
}

func (s *service) GetByID(ctx context.Context, payoutID snowflake.ID) (*domain.CreatorPayout, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	payout, err := s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.ErrNotFound
	}
	if actor.Role != identity.RoleAdmin && payout.CreatorID != actor.UserID {
		return nil, domain.ErrNotFound
	}
	return payout, nil
}

func (s *service) ListMine(ctx context.Context) ([]domain.CreatorPayout, error) {
	actor, err := identity.Require(ctx, identity.RoleCreator)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByCreator(ctx, s.db, actor.UserID)
}

func (s *service) ListAll(ctx context.Context, status domain.Status) ([]domain.CreatorPayout, error) {
	if _, err := identity.Require(ctx, identity.RoleAdmin); err != nil {
		return nil, err
	}
	if status == "" {
		status = domain.StatusPending
	}
	return s.repo.ListByStatus(ctx, s.db, status)
}
