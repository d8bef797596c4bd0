package reconciliation

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/reconciliation/repository"
	"github.com/shopbooks/shopbooks/internal/reconciliation/service"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
