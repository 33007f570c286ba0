package payment

import (
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/payment/adapters"
	"github.com/sitesell/sitesell/internal/payment/adapters/tripay"
	"github.com/sitesell/sitesell/internal/payment/adapters/xendit"
	"github.com/sitesell/sitesell/internal/payment/repository"
	"github.com/sitesell/sitesell/internal/payment/service"
	"github.com/sitesell/sitesell/internal/payment/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config, log *zap.Logger) *adapters.Registry {
		return adapters.NewRegistry(
			tripay.New(cfg.Gateway, log),
			xendit.New(cfg.Gateway, log),
		)
	}),
	fx.Provide(service.New),
	fx.Provide(webhook.New),
)
