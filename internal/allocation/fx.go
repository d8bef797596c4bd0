package allocation

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/allocation/repository"
	"github.com/shopbooks/shopbooks/internal/allocation/service"
)

var Module = fx.Module("allocation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
