package journal

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/journal/repository"
	"github.com/shopbooks/shopbooks/internal/journal/service"
)

var Module = fx.Module("journal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
