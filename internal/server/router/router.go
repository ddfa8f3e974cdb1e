package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/server/handlers"
	"github.com/souenergy/cotacao-backend/internal/server/middleware"
	"github.com/souenergy/cotacao-backend/internal/service/auth"
)

// Handlers bundles the HTTP adapters required to wire the engine.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Quotation *handlers.QuotationHandler
	Image     *handlers.ImageHandler
	Export    *handlers.ExportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authSvc *auth.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	// The quotation form is served from another origin.
	r.Use(cors.Default())

	api := r.Group("/api")
	api.POST("/login", h.Auth.Login)
	api.POST("/cotacao", h.Quotation.Submit)
	api.GET("/images/:filename", h.Image.Serve)

	protected := api.Group("", middleware.RequireAdmin(authSvc, logger))
	protected.GET("/cotacoes", h.Quotation.List)
	protected.GET("/cotacao/:id", h.Quotation.GetByID)
	protected.GET("/exportar-excel", h.Export.Export)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

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
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
