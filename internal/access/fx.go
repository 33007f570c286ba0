package access

import (
	"github.com/sitesell/sitesell/internal/access/repository"
	"github.com/sitesell/sitesell/internal/access/service"
	"go.uber.org/fx"
)

var Module = fx.Module("access.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
