package restapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(handler *Handler, zapLogger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(requestLogger(zapLogger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/wallets/import", handler.ImportWallets)
		v1.GET("/wallets", handler.GetWallets)
		v1.POST("/wallets/selection", handler.SetSelection)
		v1.POST("/wallets/generate", handler.GenerateWallets)
		v1.POST("/transfers", handler.RunTransfers)
		v1.GET("/rows/template", handler.GetRowTemplate)
		v1.POST("/swaps/quote", handler.QuoteSwap)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// requestLogger logs each request through zap instead of Gin's default
// writer.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
