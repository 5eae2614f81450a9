package service

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edupredict/studentperf/internal/errors"
	"github.com/edupredict/studentperf/internal/monitoring"
	"github.com/edupredict/studentperf/internal/ratelimit"
	"github.com/edupredict/studentperf/internal/security"
)

// NewRouter assembles the gin engine: middleware stack first, then the API
// routes bound to the serving context.
func NewRouter(ctx *Context, metrics *monitoring.Metrics, logger *monitoring.Logger, limiter *ratelimit.Limiter) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(metrics, logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(security.HeadersMiddleware())
	if limiter != nil {
		r.Use(ratelimit.Middleware(limiter))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	h := NewHandlers(ctx, metrics, logger)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/predict", h.Predict)
		api.POST("/predict/bulk", h.PredictBulk)
		api.GET("/analytics", h.Analytics)
		api.GET("/model/info", h.ModelInfo)
	}

	r.GET("/metrics", h.Metrics)

	return r
}
