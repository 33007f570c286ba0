package invoice

import (
	"github.com/sitesell/sitesell/internal/invoice/repository"
	"github.com/sitesell/sitesell/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
