package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/config"
	"github.com/polarisedu/coursepay/internal/server/http/handlers"
)

// Module exposes the configured gin engine to fx graph.
var Module = fx.Provide(newEngine)

type routerParams struct {
	fx.In

	Facade handlers.Facade
	Config *config.Config
	Logger *slog.Logger
}

func newEngine(p routerParams) *gin.Engine {
	return Setup(p.Facade, p.Config, p.Logger)
}
