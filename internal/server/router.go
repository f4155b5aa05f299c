package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	Handler        *Handler
	Logger         *zap.Logger
	AllowedOrigins []string
	// Registry receives request metrics and is served on /metrics. Nil
	// disables both.
	Registry *prometheus.Registry
}

// corsConfig allows every origin when origins is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cfg.OptionsResponseStatusCode = http.StatusOK
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// NewRouter returns the gin engine serving the proxy routes.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(GinZapLogger(logger))
	router.Use(gin.Recovery())
	if opts.Registry != nil {
		router.Use(RequestMetrics(opts.Registry))
	}
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: messageMethodNotAllowed})
	})

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.POST("/interpret", opts.Handler.Interpret)
	api.OPTIONS("/interpret", Preflight)
	if opts.Handler.models != nil {
		api.GET("/models", opts.Handler.ListModels)
		api.OPTIONS("/models", Preflight)
	}

	return router
}
