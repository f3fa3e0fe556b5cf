package kv_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lanebid/drayage-portal/internal/infra/kv"
	"github.com/lanebid/drayage-portal/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func exerciseBackend(t *testing.T, backend port.KV) {
	t.Helper()
	ctx := context.Background()

	_, err := backend.Get(ctx, "drayage-db")
	require.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, backend.Put(ctx, "drayage-db", []byte(`{"vendors":[]}`)))
	got, err := backend.Get(ctx, "drayage-db")
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendors":[]}`, string(got))

	require.NoError(t, backend.Put(ctx, "drayage-db", []byte(`{"vendors":[{"id":"v1"}]}`)))
	got, err = backend.Get(ctx, "drayage-db")
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendors":[{"id":"v1"}]}`, string(got))

	require.NoError(t, backend.Delete(ctx, "drayage-db"))
	_, err = backend.Get(ctx, "drayage-db")
	require.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, backend.Ping(ctx))
}

func TestMemoryBackend(t *testing.T) {
	backend := kv.NewMemory()
	defer backend.Close()

	exerciseBackend(t, backend)
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	backend := kv.NewMemory()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, backend.Put(ctx, "k", value))
	value[0] = 'z'

	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	backend, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer backend.Close()

	exerciseBackend(t, backend)
}

func TestSQLiteBackendPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	ctx := context.Background()

	first, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "drayage-db", []byte("saved")))
	require.NoError(t, first.Close())

	second, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "drayage-db")
	require.NoError(t, err)
	assert.Equal(t, "saved", string(got))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := kv.Open(context.Background(), kv.Options{Backend: "etcd"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestOpenDefaultsToMemory(t *testing.T) {
	backend, err := kv.Open(context.Background(), kv.Options{}, zap.NewNop())
	require.NoError(t, err)
	_, ok := backend.(*kv.Memory)
	assert.True(t, ok)
}
