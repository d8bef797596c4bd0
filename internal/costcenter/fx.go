package costcenter

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/costcenter/repository"
)

var Module = fx.Module("costcenter.registry",
	fx.Provide(repository.Provide),
)
