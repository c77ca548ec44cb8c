package restapi

import (
	"net/http"
	"time"

	"walletview/internal/app/port"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	AllowOrigins []string
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// SetupRouter builds the gin engine serving the wallet view.
func SetupRouter(view port.WalletView, cfg RouterConfig, logger port.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	handler := NewViewHandler(view, logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/view", handler.GetView)
		v1.POST("/connect", handler.Connect)
		v1.POST("/disconnect", handler.Disconnect)
		v1.POST("/refresh", handler.Refresh)
		v1.POST("/deposit", handler.Deposit)
		v1.POST("/withdraw", handler.Withdraw)
		v1.POST("/transfer", handler.Transfer)
		v1.POST("/accounts/select", handler.SelectAccount)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	return router
}

// RequestLogger logs every request through logger once it completes.
func RequestLogger(logger port.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", args...)
		default:
			logger.Debug("HTTP request", args...)
		}
	}
}
