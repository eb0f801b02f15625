package cache

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("cache",
	fx.Provide(
		fx.Annotate(New, fx.As(new(Store)), fx.As(fx.Self())),
		NewLocker,
	),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, c *Cache) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Connect(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return c.Close()
		},
	})
}
