package recurring

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/recurring/repository"
	"github.com/shopbooks/shopbooks/internal/recurring/service"
)

var Module = fx.Module("recurring.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
