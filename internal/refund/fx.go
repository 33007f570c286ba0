package refund

import (
	"github.com/sitesell/sitesell/internal/refund/repository"
	"github.com/sitesell/sitesell/internal/refund/service"
	"go.uber.org/fx"
)

var Module = fx.Module("refund.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
