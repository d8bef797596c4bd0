package audit

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/audit/repository"
	"github.com/shopbooks/shopbooks/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
