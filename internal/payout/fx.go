package payout

import (
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/payout/domain"
	"github.com/sitesell/sitesell/internal/payout/repository"
	"github.com/sitesell/sitesell/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) domain.FeePolicy {
		return domain.PercentFee{
			Bps: cfg.Fees.PayoutPercentBps,
			Min: cfg.Fees.PayoutMinAmount,
		}
	}),
	fx.Provide(service.New),
)
