package auth

import (
	"github.com/smallbiznis/tenantd/internal/auth/password"
	"github.com/smallbiznis/tenantd/internal/auth/token"
	"github.com/smallbiznis/tenantd/internal/clock"
	"github.com/smallbiznis/tenantd/internal/config"
	"go.uber.org/fx"
)

func newHasher(cfg config.Config) password.Hasher {
	return password.NewHasher(cfg.BcryptCost)
}

func newIssuer(cfg config.Config, clk clock.Clock) *token.Issuer {
	return token.NewIssuer(cfg.AuthJWTSecret, cfg.AuthTokenTTL, clk)
}

var Module = fx.Module("auth",
	fx.Provide(newHasher),
	fx.Provide(newIssuer),
)
