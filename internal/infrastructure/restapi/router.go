package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// SetupRouter wires the session endpoints, /metrics and /health. A non-empty
// swaggerSpecPath also serves the OpenAPI document and the Swagger UI.
func SetupRouter(handler *SessionHandler, swaggerSpecPath string, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/view", handler.GetView)
		v1.GET("/summary", handler.GetSummary)
		v1.POST("/overview", handler.SelectOverview)
		v1.POST("/refresh", handler.Refresh)
		v1.POST("/search", handler.Search)
		v1.POST("/editing", handler.SetEditing)

		catalog := v1.Group("/catalog")
		{
			catalog.GET("", handler.GetCatalog)
			catalog.POST("", handler.AddCoin)
			catalog.DELETE("/:id", handler.RemoveCoin)
			catalog.POST("/:id/select", handler.SelectCoin)
			catalog.PUT("/:id/holdings", handler.SetHoldings)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if swaggerSpecPath != "" {
		router.StaticFile("/docs/swagger.yaml", swaggerSpecPath)
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.yaml")))
	}
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	return router
}
