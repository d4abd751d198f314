package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
)

// KeyPrefix is the blob prefix holding one JSON document per order.
const KeyPrefix = "orders/"

const defaultFetchConcurrency = 16

// Key returns the blob key of an order.
func Key(orderID string) string {
	return KeyPrefix + orderID + ".json"
}

// Record is a normalized order plus the blob version it was read at.
type Record struct {
	Order   Order
	version string
}

// Store reads and writes order documents in the blob store.
type Store struct {
	blobs             blob.Store
	log               *zap.Logger
	fetchConcurrency  int
	conditionalWrites bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFetchConcurrency bounds the number of parallel gets in List.
func WithFetchConcurrency(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithConditionalWrites makes Save fail with ErrConflict when the order
// changed since it was read. Off by default: the last writer wins.
func WithConditionalWrites(on bool) StoreOption {
	return func(s *Store) {
		s.conditionalWrites = on
	}
}

// NewStore creates a new orders Store.
func NewStore(blobs blob.Store, log *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		blobs:            blobs,
		log:              log,
		fetchConcurrency: defaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads and normalizes an order. Any read or decode failure is
// reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, orderID string) (*Record, error) {
	obj, err := s.blobs.Get(ctx, Key(orderID))
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			logging.WithContext(ctx, s.log).Warn("order read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	order, err := decode(obj.Body)
	if err != nil {
		logging.WithContext(ctx, s.log).Warn("order document unparsable", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return &Record{Order: order, version: obj.Version}, nil
}

// Save overwrites the order document with the record's current state.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	body, err := Encode(rec.Order)
	if err != nil {
		return err
	}

	var opts []blob.PutOption
	if s.conditionalWrites {
		opts = append(opts, blob.IfMatch(rec.version))
	}
	if err := s.blobs.Put(ctx, Key(rec.Order.OrderID), body, blob.ContentTypeJSON, opts...); err != nil {
		if errors.Is(err, blob.ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("save order %s: %w", rec.Order.OrderID, err)
	}
	return nil
}

// List fetches every order concurrently, skipping documents that cannot be
// read or parsed, and returns them newest first.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	keys, err := s.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	jsonKeys := keys[:0:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			jsonKeys = append(jsonKeys, k)
		}
	}

	results := make([]*Order, len(jsonKeys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i, key := range jsonKeys {
		g.Go(func() error {
			obj, err := s.blobs.Get(gctx, key)
			if err != nil {
				logging.WithContext(ctx, s.log).Warn("skipping unreadable order", zap.String("key", key), zap.Error(err))
				return nil
			}
			order, err := decode(obj.Body)
			if err != nil {
				logging.WithContext(ctx, s.log).Warn("skipping unparsable order", zap.String("key", key), zap.Error(err))
				return nil
			}
			results[i] = &order
			return nil
		})
	}
	// goroutines never return errors; failures are dropped above
	_ = g.Wait()

	out := make([]Order, 0, len(results))
	for _, o := range results {
		if o != nil {
			out = append(out, *o)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders by timestamp descending. Unparsable timestamps sort last.
func SortNewestFirst(list []Order) {
	type entry struct {
		order Order
		at    time.Time
	}
	entries := make([]entry, len(list))
	for i, o := range list {
		entries[i].order = o
		entries[i].at, _ = time.Parse(time.RFC3339Nano, o.Timestamp)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.After(entries[j].at)
	})
	for i := range entries {
		list[i] = entries[i].order
	}
}

// Encode renders an order the way it is stored: pretty-printed JSON.
func Encode(o Order) ([]byte, error) {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	return data, nil
}

func decode(body []byte) (Order, error) {
	if len(body) == 0 {
		return Order{}, errors.New("empty document")
	}
	var raw RawOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return Normalize(raw), nil
}
