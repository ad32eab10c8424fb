package backend

import (
	"github.com/ghaggin/storefront/internal/repository"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		repository.NewJSON,
		New,
		NewController,
	),
)
