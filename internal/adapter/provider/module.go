package provider

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/config"
)

// Module exposes provider client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.ProviderAPIURL, p.Config.ProviderAPISecret, p.Config.VerifyTimeout, p.Logger)
}
