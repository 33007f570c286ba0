package order

import (
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/order/domain"
	"github.com/sitesell/sitesell/internal/order/repository"
	"github.com/sitesell/sitesell/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config) domain.FeePolicy {
		return domain.FlatFee{Amount: cfg.Fees.PlatformAmount}
	}),
	fx.Provide(service.New),
)
