package router

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/stocktransfer/internal/infrastructure/auth"
	"github.com/erp/stocktransfer/internal/infrastructure/logger"
	"github.com/erp/stocktransfer/internal/infrastructure/telemetry"
	"github.com/erp/stocktransfer/internal/interfaces/http/handler"
	"github.com/erp/stocktransfer/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// EngineConfig holds what the HTTP engine is assembled from
type EngineConfig struct {
	Logger           *zap.Logger
	JWTService       *auth.JWTService
	MeterProvider    *telemetry.MeterProvider
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
	MaxBodySize      int64
	TrustedProxies   []string
	Health           HealthCheck
}

// NewEngine builds the gin engine with the middleware chain and the transfer routes.
// /health is public; everything under /api/v1 requires a bearer token.
func NewEngine(cfg EngineConfig, transfers *handler.TransferHandler) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.MeterProvider),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	engine.GET("/health", healthHandler(cfg.Health))

	r := NewRouter(engine)
	r.Register(TransferRoutes(transfers).Use(
		middleware.JWTAuth(middleware.JWTConfig{JWTService: cfg.JWTService, Logger: cfg.Logger}),
		middleware.TraceAttributes(),
		middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.ProfilingEnabled}),
	))
	r.Setup()
	return engine, nil
}

// TransferRoutes maps the transfer workflow onto /transfers
func TransferRoutes(h *handler.TransferHandler) *ResourceGroup {
	g := NewResourceGroup("transfers", "/transfers")
	g.GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/submit", h.Submit).
		POST("/:id/approve", h.Approve).
		POST("/:id/approve-all", h.ApproveAll).
		POST("/:id/reject", h.Reject).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/issue", h.Issue).
		POST("/:id/issue-all", h.IssueAll).
		POST("/:id/receive", h.Receive).
		POST("/:id/receive-all", h.ReceiveAll).
		POST("/:id/cancel-receipt", h.CancelReceipt).
		GET("/:id/log", h.ItemLog).
		GET("/:id/movements", h.Movements)
	return g
}

func healthHandler(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
