package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoDBAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error)
	PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error)
	Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error)
}

// dynamoItem is the shape persisted in the blobs table. PK is blob_key.
type dynamoItem struct {
	Key         string `dynamodbav:"blob_key"`
	Body        []byte `dynamodbav:"body"`
	ContentType string `dynamodbav:"content_type"`
	Version     string `dynamodbav:"version"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

// DynamoStore keeps blobs as items of a single DynamoDB table.
type DynamoStore struct {
	client    DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoStore creates a DynamoStore over tableName.
func NewDynamoStore(client DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches a blob by key. Returns ErrNotFound if the item does not exist.
func (s *DynamoStore) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"blob_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var it dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal blob item: %w", err)
	}
	return &Object{
		Key:         it.Key,
		Body:        it.Body,
		ContentType: it.ContentType,
		Version:     it.Version,
	}, nil
}

// Put writes the blob with a fresh version. With IfMatch the write only
// succeeds while the stored version still equals the given one.
func (s *DynamoStore) Put(ctx context.Context, key string, body []byte, contentType string, opts ...PutOption) error {
	o := applyPutOptions(opts)
	item, err := attributevalue.MarshalMap(dynamoItem{
		Key:         key,
		Body:        body,
		ContentType: contentType,
		Version:     uuid.NewString(),
		UpdatedAt:   s.nowFunc().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal blob item: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}
	switch {
	case o.IfNoneMatch:
		input.ConditionExpression = awsString("attribute_not_exists(blob_key)")
	case o.IfMatch != "":
		input.ConditionExpression = awsString("#v = :expected")
		input.ExpressionAttributeNames = map[string]string{"#v": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: o.IfMatch},
		}
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConflict
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// List scans the table for keys starting with prefix.
func (s *DynamoStore) List(ctx context.Context, prefix string) ([]string, error) {
	p := dyn.NewScanPaginator(s.client, &dyn.ScanInput{
		TableName:            &s.tableName,
		FilterExpression:     awsString("begins_with(blob_key, :prefix)"),
		ProjectionExpression: awsString("blob_key"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan blobs: %w", err)
		}
		for _, item := range page.Items {
			if v, ok := item["blob_key"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, v.Value)
			}
		}
	}
	return keys, nil
}

func awsString(s string) *string { return &s }
