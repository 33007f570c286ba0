package balance

import (
	"github.com/sitesell/sitesell/internal/balance/repository"
	"github.com/sitesell/sitesell/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
