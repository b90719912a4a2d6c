package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/config"
	"github.com/polarisedu/coursepay/internal/worker"
)

// Module assembles the application facade, HTTP server and background
// verification sweep.
var Module = fx.Options(
	fx.Provide(
		NewPaymentFacade,
		newHTTPServer,
		newVerifyProcessor,
	),
	fx.Invoke(registerLifecycle),
)

func newHTTPServer(engine *gin.Engine, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:    cfg.RunAddress,
		Handler: engine,
	}
}

type verifyParams struct {
	fx.In

	Facade *PaymentFacade
	Config *config.Config
	Logger *slog.Logger
}

func newVerifyProcessor(p verifyParams) *worker.VerifyProcessor {
	return worker.NewVerifyProcessor(
		p.Facade,
		p.Logger,
		p.Config.VerifyPollInterval,
		p.Config.VerifyBatchSize,
		p.Config.WorkerPoolSize,
	)
}

type lifecycleParams struct {
	fx.In

	Ctx       context.Context
	Server    *http.Server
	Processor *worker.VerifyProcessor
	Config    *config.Config
	Logger    *slog.Logger
}

func registerLifecycle(lc fx.Lifecycle, p lifecycleParams) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Logger.Info("starting http server", slog.String("address", p.Config.RunAddress))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server stopped", slog.String("error", err.Error()))
				}
			}()

			if p.Config.VerificationEnabled() {
				p.Logger.Info("starting payment verification sweep")
				p.Processor.Start(p.Ctx)
			} else {
				p.Logger.Warn("payment verification sweep disabled: provider secret not set")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			defer cancel()

			p.Processor.Stop()
			return p.Server.Shutdown(shutdownCtx)
		},
	})
}
