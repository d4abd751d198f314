package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	internalaws "github.com/imrishuroy/merch-order-admin/internal/aws"
	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/config"
	"github.com/imrishuroy/merch-order-admin/internal/email"
	"github.com/imrishuroy/merch-order-admin/internal/metrics"
	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// Deps are the services shared by the API and the worker.
type Deps struct {
	Blobs   blob.Store
	Orders  *orders.Service
	Metrics *metrics.Prometheus
}

// Build wires the storage backend, the email sender, events and metrics from cfg.
// clients may be nil when only the memory backend is used.
func Build(cfg config.Config, clients *internalaws.AWSClients, log *zap.Logger) (*Deps, error) {
	blobs, err := NewBlobStore(cfg.Blob, clients)
	if err != nil {
		return nil, err
	}

	prom := metrics.NewPrometheus(cfg.MetricsNamespace)
	recorder := metrics.Multi{prom}
	if cfg.CloudWatchMetrics && clients != nil {
		recorder = append(recorder, internalaws.NewCloudWatchRecorder(clients.CloudWatch, cfg.MetricsNamespace, log))
	}

	transport := email.NewSMTPTransport(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		SSL:      cfg.SMTP.Secure,
	})
	sender := email.NewSender(email.Config{
		From:      fmt.Sprintf("%q <%s>", cfg.Email.StoreName, cfg.SMTP.From),
		StoreName: cfg.Email.StoreName,
		LogoURL:   cfg.Email.LogoURL,
		Timeout:   cfg.Email.SendTimeout,
	}, transport, recorder, log)

	store := orders.NewStore(blobs, log,
		orders.WithFetchConcurrency(cfg.Blob.FetchConcurrency),
		orders.WithConditionalWrites(cfg.Blob.ConditionalWrites),
	)

	opts := []orders.ServiceOption{
		orders.WithMaxRetryAttempts(cfg.Email.MaxRetryAttempts),
		orders.WithTransitionRecorder(recorder),
	}
	if cfg.OrderEventsQueueURL != "" && clients != nil {
		delay := int32(cfg.EmailRetryDelay.Seconds())
		opts = append(opts, orders.WithEventPublisher(internalaws.NewPublisher(clients.SQS, cfg.OrderEventsQueueURL, delay)))
	}

	return &Deps{
		Blobs:   blobs,
		Orders:  orders.NewService(store, sender, log, opts...),
		Metrics: prom,
	}, nil
}

// NewBlobStore selects the blob backend.
func NewBlobStore(cfg config.BlobConfig, clients *internalaws.AWSClients) (blob.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return blob.NewMemoryStore(), nil
	case config.BackendS3:
		if clients == nil {
			return nil, fmt.Errorf("s3 backend requires aws clients")
		}
		return blob.NewS3Store(clients.S3, cfg.Bucket), nil
	case config.BackendDynamoDB:
		if clients == nil {
			return nil, fmt.Errorf("dynamodb backend requires aws clients")
		}
		return blob.NewDynamoStore(clients.DynamoDB, cfg.Table), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

// NewAWSClients builds SDK clients unless the configuration needs none.
func NewAWSClients(ctx context.Context, cfg config.Config) (*internalaws.AWSClients, error) {
	if cfg.Blob.Backend == config.BackendMemory && cfg.OrderEventsQueueURL == "" && !cfg.CloudWatchMetrics {
		return nil, nil
	}
	return internalaws.NewAWSClients(ctx, internalaws.Settings{
		Region:           cfg.AWS.Region,
		EndpointOverride: cfg.AWS.EndpointOverride,
		AccessKeyID:      cfg.AWS.AccessKeyID,
		SecretAccessKey:  cfg.AWS.SecretAccessKey,
	}, internalaws.ClientOptions{S3PathStyle: cfg.AWS.S3PathStyle})
}
