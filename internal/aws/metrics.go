package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/logging"
)

// CloudWatchRecorder pushes domain counters as CloudWatch custom metrics.
// Put failures are logged and otherwise ignored.
type CloudWatchRecorder struct {
	client    CloudWatchAPI
	namespace string
	log       *zap.Logger
	nowFunc   func() time.Time
}

func NewCloudWatchRecorder(client CloudWatchAPI, namespace string, log *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		log:       log,
		nowFunc:   time.Now,
	}
}

func (r *CloudWatchRecorder) EmailAttempt(ctx context.Context, status string) {
	r.put(ctx, "EmailAttempts", "EmailStatus", status)
}

func (r *CloudWatchRecorder) StatusTransition(ctx context.Context, status string) {
	r.put(ctx, "OrderStatusTransitions", "OrderStatus", status)
}

func (r *CloudWatchRecorder) put(ctx context.Context, name, dimension, value string) {
	ts := r.nowFunc()
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &r.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: awsString(name),
			Dimensions: []cwtypes.Dimension{{Name: awsString(dimension), Value: awsString(value)}},
			Timestamp:  &ts,
			Unit:       cwtypes.StandardUnitCount,
			Value:      float64Ptr(1),
		}},
	})
	if err != nil {
		logging.WithContext(ctx, r.log).Warn("cloudwatch put metric failed", zap.String("metric", name), zap.Error(err))
	}
}

func float64Ptr(v float64) *float64 { return &v }
