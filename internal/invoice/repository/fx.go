package repository

import "go.uber.org/fx"

var Module = fx.Module("invoice.repository",
	fx.Provide(NewRepository),
)
