package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/app"
	"github.com/imrishuroy/merch-order-admin/internal/config"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		ServiceName: cfg.ServiceName + "-worker",
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

	p := NewProcessor(deps.Orders, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.email_attempted","order_id":"local-order-1","status":"accepted","email_status":"failed","email_attempts":1}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		logger.Info("local run finished", zap.Int("failures", len(resp.BatchItemFailures)))
		return
	}

	lambda.Start(p.Handle)
}
