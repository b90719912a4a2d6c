package di

import (
	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/adapter/provider"
	"github.com/polarisedu/coursepay/internal/app"
	"github.com/polarisedu/coursepay/internal/config"
	"github.com/polarisedu/coursepay/internal/logger"
	"github.com/polarisedu/coursepay/internal/pkg/auth"
	"github.com/polarisedu/coursepay/internal/server/http/handlers"
	"github.com/polarisedu/coursepay/internal/server/http/router"
	"github.com/polarisedu/coursepay/internal/storage/postgres"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// Module composes the full application graph.
func Module() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		provider.Module,
		usecase.Module,
		fx.Provide(
			func(c provider.Client) usecase.Verifier { return c },
			func(s *postgres.Storage) app.HealthChecker { return s },
			func(f *app.PaymentFacade) handlers.Facade { return f },
		),
		router.Module,
		app.Module,
	)
}
