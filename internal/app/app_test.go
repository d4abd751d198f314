package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/config"
)

func memoryConfig() config.Config {
	return config.Config{
		Blob:             config.BlobConfig{Backend: config.BackendMemory, FetchConcurrency: 4},
		Email:            config.EmailConfig{StoreName: "TEDx Merch Store", MaxRetryAttempts: 3},
		MetricsNamespace: "test",
	}
}

func TestBuild_Memory(t *testing.T) {
	cfg := memoryConfig()
	clients, err := NewAWSClients(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, clients)

	deps, err := Build(cfg, clients, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &blob.MemoryStore{}, deps.Blobs)
	assert.Equal(t, 3, deps.Orders.MaxAttempts())
	assert.NotNil(t, deps.Metrics)
}

func TestNewBlobStore_RequiresClients(t *testing.T) {
	_, err := NewBlobStore(config.BlobConfig{Backend: config.BackendS3, Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = NewBlobStore(config.BlobConfig{Backend: config.BackendDynamoDB, Table: "t"}, nil)
	assert.Error(t, err)
	_, err = NewBlobStore(config.BlobConfig{Backend: "ftp"}, nil)
	assert.Error(t, err)
}
