package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
)

// countingStore wraps a MemoryStore and counts writes.
type countingStore struct {
	*blob.MemoryStore
	puts    int
	failGet map[string]bool
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: blob.NewMemoryStore(), failGet: map[string]bool{}}
}

func (c *countingStore) Get(ctx context.Context, key string) (*blob.Object, error) {
	if c.failGet[key] {
		return nil, errors.New("connection reset")
	}
	return c.MemoryStore.Get(ctx, key)
}

func (c *countingStore) Put(ctx context.Context, key string, body []byte, contentType string, opts ...blob.PutOption) error {
	c.puts++
	return c.MemoryStore.Put(ctx, key, body, contentType, opts...)
}

func seedOrder(t *testing.T, store blob.Store, raw RawOrder) {
	t.Helper()
	body, err := json.MarshalIndent(raw, "", "  ")
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), Key(raw.OrderID), body, blob.ContentTypeJSON))
}

func TestStoreGet_MissingAndCorrupt(t *testing.T) {
	blobs := blob.NewMemoryStore()
	store := NewStore(blobs, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, blobs.Put(ctx, Key("bad"), []byte("{not json"), blob.ContentTypeJSON))
	_, err = store.Get(ctx, "bad")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreGet_ReadFailureIsNotFound(t *testing.T) {
	blobs := newCountingStore()
	seedOrder(t, blobs, baseRaw())
	blobs.failGet[Key("ord-1")] = true

	_, err := NewStore(blobs, zaptest.NewLogger(t)).Get(context.Background(), "ord-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreList_SkipsCorruptAndSortsNewestFirst(t *testing.T) {
	blobs := blob.NewMemoryStore()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		raw := baseRaw()
		raw.OrderID = fmt.Sprintf("ord-%d", i)
		raw.Timestamp = fmt.Sprintf("2025-01-0%dT10:00:00.000Z", i)
		seedOrder(t, blobs, raw)
	}
	require.NoError(t, blobs.Put(ctx, Key("ord-3"), []byte(`{"orderId":`), blob.ContentTypeJSON))
	require.NoError(t, blobs.Put(ctx, "orders/readme.txt", []byte("ignore"), "text/plain"))

	list, err := NewStore(blobs, zaptest.NewLogger(t), WithFetchConcurrency(2)).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.OrderID)
	}
	assert.Equal(t, []string{"ord-5", "ord-4", "ord-2", "ord-1"}, ids)
}

func TestStoreSave_WritesPrettyJSON(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seedOrder(t, blobs, baseRaw())
	store := NewStore(blobs, zaptest.NewLogger(t))
	ctx := context.Background()

	rec, err := store.Get(ctx, "ord-1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, rec))

	obj, err := blobs.Get(ctx, Key("ord-1"))
	require.NoError(t, err)
	assert.Equal(t, blob.ContentTypeJSON, obj.ContentType)
	assert.Contains(t, string(obj.Body), "\n  \"orderId\": \"ord-1\"")
}

func TestStoreSave_ConditionalWrites(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seedOrder(t, blobs, baseRaw())
	ctx := context.Background()

	t.Run("last writer wins by default", func(t *testing.T) {
		store := NewStore(blobs, zaptest.NewLogger(t))
		a, err := store.Get(ctx, "ord-1")
		require.NoError(t, err)
		b, err := store.Get(ctx, "ord-1")
		require.NoError(t, err)

		a.Order.Status = StatusAccepted
		b.Order.Status = StatusRejected
		require.NoError(t, store.Save(ctx, a))
		require.NoError(t, store.Save(ctx, b))

		got, err := store.Get(ctx, "ord-1")
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Order.Status)
	})

	t.Run("conflict when enabled", func(t *testing.T) {
		store := NewStore(blobs, zaptest.NewLogger(t), WithConditionalWrites(true))
		a, err := store.Get(ctx, "ord-1")
		require.NoError(t, err)
		b, err := store.Get(ctx, "ord-1")
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, a))
		require.ErrorIs(t, store.Save(ctx, b), ErrConflict)
	})
}

func TestSortNewestFirst_DuplicateOrMissingIDs(t *testing.T) {
	list := []Order{
		{OrderID: "", Timestamp: "2025-01-01T10:00:00.000Z", Customer: Customer{Name: "old"}},
		{OrderID: "dup", Timestamp: "2025-01-02T10:00:00.000Z", Customer: Customer{Name: "mid"}},
		{OrderID: "", Timestamp: "2025-01-04T10:00:00.000Z", Customer: Customer{Name: "newest"}},
		{OrderID: "dup", Timestamp: "2025-01-03T10:00:00.000Z", Customer: Customer{Name: "newer"}},
		{OrderID: "", Timestamp: "garbage", Customer: Customer{Name: "unparsable"}},
	}
	SortNewestFirst(list)

	names := make([]string, 0, len(list))
	for _, o := range list {
		names = append(names, o.Customer.Name)
	}
	assert.Equal(t, []string{"newest", "newer", "mid", "old", "unparsable"}, names)
}
