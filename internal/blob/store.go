package blob

import (
	"context"
	"errors"
)

// ContentTypeJSON is used for every document written by this service.
const ContentTypeJSON = "application/json"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrConflict is returned by a conditional Put whose condition does not hold.
	ErrConflict = errors.New("blob version conflict")
)

// Object is a stored blob together with the metadata the backends expose.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	// Version is an opaque token (S3 ETag, DynamoDB version attribute)
	// usable with IfMatch.
	Version string
}

// Store is the key/value object storage backing all persistence.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body []byte, contentType string, opts ...PutOption) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// PutOptions holds optional write conditions.
type PutOptions struct {
	IfMatch string
	// IfNoneMatch makes the write fail when the key already exists.
	IfNoneMatch bool
}

// PutOption configures a single Put call.
type PutOption func(*PutOptions)

// IfMatch makes the write conditional on the current object version.
// An empty version leaves the write unconditional.
func IfMatch(version string) PutOption {
	return func(o *PutOptions) {
		o.IfMatch = version
	}
}

// IfNotExists makes the write fail with ErrConflict when the key is already present.
func IfNotExists() PutOption {
	return func(o *PutOptions) {
		o.IfNoneMatch = true
	}
}

func applyPutOptions(opts []PutOption) PutOptions {
	var o PutOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
