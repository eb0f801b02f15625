package partition

import "go.uber.org/fx"

var Module = fx.Module("partition",
	fx.Provide(
		fx.Annotate(NewManager, fx.As(new(Provisioner))),
	),
)
