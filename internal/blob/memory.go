package blob

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]Object
	seq     int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]Object{}}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return &obj, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string, opts ...PutOption) error {
	o := applyPutOptions(opts)
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.IfNoneMatch {
		if _, ok := m.objects[key]; ok {
			return ErrConflict
		}
	}
	if o.IfMatch != "" {
		if cur, ok := m.objects[key]; !ok || cur.Version != o.IfMatch {
			return ErrConflict
		}
	}
	m.seq++
	m.objects[key] = Object{
		Key:         key,
		Body:        append([]byte(nil), body...),
		ContentType: contentType,
		Version:     strconv.Itoa(m.seq),
	}
	return nil
}

// List returns matching keys in lexical order, like S3 does.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
