package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/balance/domain"
	"github.com/sitesell/sitesell/internal/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type ledger struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Ledger {
	return &ledger{
		db:   p.DB,
		log:  p.Log.Named("balance.service"),
		repo: p.Repo,
	}
}

func (s *ledger) GetBalance(ctx context.Context, creatorID snowflake.ID) (domain.CreatorBalance, error) {
	if _, err := identity.Require(ctx, identity.RoleCreator); err != nil {
		return domain.CreatorBalance{}, err
	}
	balance, err := s.repo.Find(ctx, s.db, creatorID)
	if err != nil {
		return domain.CreatorBalance{}, err
	}
	if balance == nil {
		// No earnings yet, report a zero balance.
		return domain.CreatorBalance{CreatorID: creatorID}, nil
	}
	return *balance, nil
}

func (s *ledger) Withdrawable(ctx context.Context, creatorID snowflake.ID) (int64, error) {
	balance, err := s.GetBalance(ctx, creatorID)
	if err != nil {
		return 0, err
	}
	pending, err := s.repo.SumPendingPayouts(ctx, s.db, creatorID)
	if err != nil {
		return 0, err
	}
	withdrawable := balance.AvailableBalance - pending
	if withdrawable < 0 {
		withdrawable = 0
	}
	return withdrawable, nil
}

func (s *ledger) Credit(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.repo.AddAvailable(ctx, tx, creatorID, amount); err != nil {
		return err
	}
	s.log.Info("balance credited",
		zap.Int64("creator_id", int64(creatorID)),
		zap.Int64("amount", amount),
	)
	return nil
}

func (s *ledger) DebitForRefund(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}
	ok, err := s.repo.SubtractAvailable(ctx, tx, creatorID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientBalance
	}
	s.log.Info("balance debited for refund",
		zap.Int64("creator_id", int64(creatorID)),
		zap.Int64("amount", amount),
	)
	return nil
}

func (s *ledger) CompleteWithdrawal(ctx context.Context, tx *gorm.DB, creatorID snowflake.ID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	ok, err := s.repo.MoveToWithdrawn(ctx, tx, creatorID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Recalculate rebuilds the balance row from order and payout history and
// overwrites the stored row when they disagree.
func (s *ledger) Recalculate(ctx context.Context, creatorID snowflake.ID) (domain.CreatorBalance, error) {
	if _, err := identity.Require(ctx, identity.RoleAdmin); err != nil {
		return domain.CreatorBalance{}, err
	}

	var rebuilt domain.CreatorBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		earnings, err := s.repo.SumEarnings(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		withdrawn, err := s.repo.SumCompletedPayouts(ctx, tx, creatorID)
		if err != nil {
			return err
		}

		rebuilt = domain.CreatorBalance{
			CreatorID:        creatorID,
			AvailableBalance: earnings - withdrawn,
			WithdrawnBalance: withdrawn,
			UpdatedAt:        time.Now().UTC(),
		}

		stored, err := s.repo.Find(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if stored != nil &&
			stored.AvailableBalance == rebuilt.AvailableBalance &&
			stored.WithdrawnBalance == rebuilt.WithdrawnBalance {
			rebuilt = *stored
			return nil
		}

		if stored != nil {
			s.log.Warn("balance drift corrected",
				zap.Int64("creator_id", int64(creatorID)),
				zap.Int64("stored_available", stored.AvailableBalance),
				zap.Int64("rebuilt_available", rebuilt.AvailableBalance),
				zap.Int64("stored_withdrawn", stored.WithdrawnBalance),
				zap.Int64("rebuilt_withdrawn", rebuilt.WithdrawnBalance),
			)
		}
		return s.repo.Put(ctx, tx, &rebuilt)
	})
	if err != nil {
		return domain.CreatorBalance{}, err
	}
	return rebuilt, nil
}
