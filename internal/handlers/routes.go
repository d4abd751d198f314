package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/auth"
	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/idempotency"
	"github.com/imrishuroy/merch-order-admin/internal/metrics"
	"github.com/imrishuroy/merch-order-admin/internal/orders"
	"github.com/imrishuroy/merch-order-admin/internal/referrals"
	"github.com/imrishuroy/merch-order-admin/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Orders    *orders.Service
	Referrals *referrals.Service
	// Blobs serves payment screenshots for GET /image.
	Blobs blob.Store
	// Idempotency enables Idempotency-Key on POST /email/resend. Optional.
	Idempotency *idempotency.Store
	// Auth protects every business route. Nil disables authentication.
	Auth    *auth.Authenticator
	Metrics *metrics.Prometheus
	Logger  *zap.Logger
}

// RegisterRoutes installs middleware and every route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	v := validation.New()

	r.Use(RequestID(), RequestLogger(cfg.Logger, cfg.Metrics))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Auth != nil {
		RegisterAuthRoutes(r, cfg.Auth, v)
	}

	api := r.Group("/")
	if cfg.Auth != nil {
		api.Use(AuthGuard(cfg.Auth))
	}
	RegisterOrdersRoutes(api, cfg, v)
	RegisterEmailRoutes(api, cfg, v)
	RegisterReferralRoutes(api, cfg, v)
	RegisterImageRoutes(api, cfg)
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func failWithError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{"success": false, "message": message, "error": err.Error()})
}
