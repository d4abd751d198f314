package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ClientOptions tunes client construction.
type ClientOptions struct {
	// S3PathStyle is needed by most S3-compatible stores behind an endpoint override.
	S3PathStyle bool
}

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	S3         *s3.Client
	DynamoDB   *dynamodb.Client
	SQS        *sqs.Client
	CloudWatch *cloudwatch.Client
}

// NewAWSClients loads AWS config and returns concrete service clients.
func NewAWSClients(ctx context.Context, s Settings, opts ClientOptions) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, s)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		S3: s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = opts.S3PathStyle
		}),
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}
