package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
)

// KeyPrefix is the blob prefix of idempotency records.
const KeyPrefix = "idempotency/"

// DefaultTTL is how long a completed response is replayed.
const DefaultTTL = 24 * time.Hour

// ErrConditionFailed indicates a conditional write lost a race with another request.
var ErrConditionFailed = errors.New("conditional check failed")

// Store keeps idempotency records in the blob store.
type Store struct {
	blobs     blob.Store
	ttlWindow time.Duration // default TTL window when creating entries
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(blobs blob.Store, ttlWindow time.Duration) *Store {
	if ttlWindow <= 0 {
		ttlWindow = DefaultTTL
	}
	return &Store{
		blobs:     blobs,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// blobKey hashes the client-supplied key so it is always a safe object name.
func blobKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return KeyPrefix + hex.EncodeToString(sum[:]) + ".json"
}

// CreateIfNotExists creates an idempotency record with status IN_PROGRESS if the key does not exist.
// Returns (created=true, nil) if successfully created.
// Returns (created=false, nil) if a live record already exists (caller should Get to inspect).
// An expired record is replaced.
func (s *Store) CreateIfNotExists(ctx context.Context, key, orderID string) (bool, error) {
	now := s.nowFunc()
	rec := IdempotencyRecord{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		OrderID:        orderID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}

	err := s.put(ctx, &rec, blob.IfNotExists())
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrConditionFailed) {
		return false, err
	}

	existing, version, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}
	if existing == nil || !existing.expired(now) {
		return false, nil
	}
	if err := s.put(ctx, &rec, blob.IfMatch(version)); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get retrieves an idempotency record by key. If not found or expired, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	rec, _, err := s.load(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.expired(s.nowFunc()) {
		return nil, nil
	}
	return rec, nil
}

// MarkDone sets status to DONE and stores the response body & status for replay.
func (s *Store) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	return s.update(ctx, key, func(rec *IdempotencyRecord) {
		rec.Status = StatusDone
		rec.ResponseBody = responseBody
		rec.ResponseStatus = responseStatus
	})
}

// MarkFailed marks the idempotency record as FAILED and optionally stores a note.
// A failed key may be retried by the client.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	return s.update(ctx, key, func(rec *IdempotencyRecord) {
		rec.Status = StatusFailed
		rec.Note = note
	})
}

// Reopen moves a FAILED record back to IN_PROGRESS. It returns false when
// another request reopened it first.
func (s *Store) Reopen(ctx context.Context, key string) (bool, error) {
	rec, version, err := s.load(ctx, key)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.Status != StatusFailed {
		return false, nil
	}
	rec.Status = StatusInProgress
	rec.Note = ""
	rec.UpdatedAt = s.nowFunc()
	if err := s.put(ctx, rec, blob.IfMatch(version)); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) update(ctx context.Context, key string, mutate func(*IdempotencyRecord)) error {
	rec, version, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("idempotency record %q not found", key)
	}
	mutate(rec)
	rec.UpdatedAt = s.nowFunc()
	return s.put(ctx, rec, blob.IfMatch(version))
}

func (s *Store) load(ctx context.Context, key string) (*IdempotencyRecord, string, error) {
	obj, err := s.blobs.Get(ctx, blobKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get idempotency record: %w", err)
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(obj.Body, &rec); err != nil {
		return nil, "", fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	return &rec, obj.Version, nil
}

func (s *Store) put(ctx context.Context, rec *IdempotencyRecord, opts ...blob.PutOption) error {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.blobs.Put(ctx, blobKey(rec.IdempotencyKey), body, blob.ContentTypeJSON, opts...); err != nil {
		if errors.Is(err, blob.ErrConflict) {
			return ErrConditionFailed
		}
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}
