package catalog

import (
	"github.com/sitesell/sitesell/internal/catalog/repository"
	"github.com/sitesell/sitesell/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
