package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.HealthHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/breeds", handler.CreateBreed)
	r.GET("/checklist-items", handler.ListChecklistItems)
	r.POST("/checklist-items", handler.CreateChecklistItem)
	r.PUT("/settings/start-time", handler.SetStartTime)

	pigs := r.Group("/pigs")
	pigs.GET("", handler.ListPigs)
	pigs.POST("", handler.CreatePig)
	pigs.POST("/:id/observations", handler.RecordObservation)
	pigs.GET("/:id/risk", handler.Risk)
	pigs.GET("/:id/monitoring", handler.Monitoring)

	r.GET("/herd/risk", handler.HerdRisk)
	r.POST("/send-message", handler.SendMessage)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
