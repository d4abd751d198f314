package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/app"
	"github.com/imrishuroy/merch-order-admin/internal/auth"
	"github.com/imrishuroy/merch-order-admin/internal/config"
	"github.com/imrishuroy/merch-order-admin/internal/handlers"
	"github.com/imrishuroy/merch-order-admin/internal/idempotency"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
	"github.com/imrishuroy/merch-order-admin/internal/referrals"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func handlerConfig(cfg config.Config, deps *app.Deps, logger *zap.Logger) handlers.HandlerConfig {
	hc := handlers.HandlerConfig{
		Orders:      deps.Orders,
		Referrals:   referrals.NewService(deps.Blobs, deps.Orders, logger),
		Blobs:       deps.Blobs,
		Idempotency: idempotency.NewStore(deps.Blobs, cfg.IdempotencyTTL),
		Metrics:     deps.Metrics,
		Logger:      logger,
	}
	if cfg.Auth.Enabled {
		hc.Auth = auth.NewAuthenticator(auth.Config{
			AdminEmail:    cfg.Auth.AdminEmail,
			AdminPassword: cfg.Auth.AdminPassword,
			PasswordHash:  cfg.Auth.PasswordHash,
			Secret:        cfg.Auth.JWTSecret,
			TTL:           cfg.Auth.TokenTTL,
		})
	}
	return hc
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := app.NewAWSClients(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	deps, err := app.Build(cfg, clients, logger)
	if err != nil {
		logger.Fatal("failed to wire services", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := setupRouter(handlerConfig(cfg, deps, logger))

	// if RUN_LOCAL is true, run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", zap.String("addr", addr), zap.String("blob_backend", cfg.Blob.Backend))
		if err := r.Run(addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
