package auth

import (
	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/config"
)

// Module exposes token strategy implementation to fx graph.
var Module = fx.Provide(newStrategy)

func newStrategy(cfg *config.Config) Strategy {
	return NewJWTStrategy(cfg.JWTSecret, Options{Issuer: "coursepay"})
}
