package blob

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDynamo stores items of one table keyed by blob_key.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	v, ok := item["blob_key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("no blob_key attribute")
	}
	return v.Value, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(blob_key)" {
		if _, ok := m.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	} else if in.ConditionExpression != nil {
		// "#v = :expected"
		cur, ok := m.items[k]
		if !ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
		want := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		got, _ := cur["version"].(*types.AttributeValueMemberS)
		if got == nil || got.Value != want {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := in.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS).Value
	out := &dyn.ScanOutput{}
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			out.Items = append(out.Items, map[string]types.AttributeValue{
				"blob_key": &types.AttributeValueMemberS{Value: k},
			})
		}
	}
	return out, nil
}

func TestDynamoStore_PutGetList(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "blobs")
	ctx := context.Background()

	_, err := store.Get(ctx, "orders/o1.json")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "orders/o1.json", []byte(`{"orderId":"o1"}`), ContentTypeJSON))
	require.NoError(t, store.Put(ctx, "coupons/coupon-X.json", []byte(`{}`), ContentTypeJSON))

	obj, err := store.Get(ctx, "orders/o1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"orderId":"o1"}`, string(obj.Body))
	assert.Equal(t, ContentTypeJSON, obj.ContentType)
	assert.NotEmpty(t, obj.Version)

	keys, err := store.List(ctx, "orders/")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders/o1.json"}, keys)
}

func TestDynamoStore_ConditionalPut(t *testing.T) {
	store := NewDynamoStore(newMockDynamo(), "blobs")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), ContentTypeJSON))
	obj, err := store.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "k", []byte("v2"), ContentTypeJSON, IfMatch(obj.Version)))
	err = store.Put(ctx, "k", []byte("v3"), ContentTypeJSON, IfMatch(obj.Version))
	require.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_ConditionalPut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Put(ctx, "k", []byte("v0"), ContentTypeJSON, IfMatch("1"))
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), ContentTypeJSON))
	obj, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "k", []byte("v2"), ContentTypeJSON, IfMatch(obj.Version)))
}

func TestPutIfNotExists(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"dynamo": NewDynamoStore(newMockDynamo(), "blobs"),
		"s3":     NewS3Store(newMockS3(), "bucket"),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "idempotency/a.json", []byte("first"), ContentTypeJSON, IfNotExists()))

			err := store.Put(ctx, "idempotency/a.json", []byte("second"), ContentTypeJSON, IfNotExists())
			require.ErrorIs(t, err, ErrConflict)

			obj, err := store.Get(ctx, "idempotency/a.json")
			require.NoError(t, err)
			assert.Equal(t, "first", string(obj.Body))
		})
	}
}
