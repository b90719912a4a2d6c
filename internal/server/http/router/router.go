package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polarisedu/coursepay/internal/config"
	"github.com/polarisedu/coursepay/internal/server/http/handlers"
	"github.com/polarisedu/coursepay/internal/server/http/middleware"
)

// Setup builds the gin engine with all routes and middleware.
func Setup(facade handlers.Facade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.DecompressRequest(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	api := engine.Group("/api")
	{
		api.GET("/health", handlers.Health(facade))
		api.GET("/product", handlers.GetProduct(facade))
		api.POST("/payment/webhook", handlers.PaymentWebhook(facade))

		authed := api.Group("/", middleware.AuthRequired(tokenParserFunc(facade.ParseToken)))
		{
			authed.POST("/purchase", handlers.CreatePurchase(facade))
			authed.GET("/purchases", handlers.ListPurchases(facade))
		}

		admin := api.Group("/admin", middleware.AdminRequired(cfg.AdminPasswordHash))
		{
			admin.GET("/purchases", handlers.AdminListPurchases(facade))
			admin.POST("/purchases/:id/cancel", handlers.AdminCancelPurchase(facade))
			admin.POST("/products", handlers.AdminCreateProduct(facade))
		}
	}

	return engine
}

type tokenParserFunc func(token string) (string, error)

func (f tokenParserFunc) ParseToken(token string) (string, error) { return f(token) }
