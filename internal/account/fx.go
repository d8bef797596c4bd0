package account

import (
	"go.uber.org/fx"

	"github.com/shopbooks/shopbooks/internal/account/repository"
	"github.com/shopbooks/shopbooks/internal/account/service"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
