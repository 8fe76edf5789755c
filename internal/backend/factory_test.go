package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeargrid/internal/config"
	"yeargrid/internal/core"
	"yeargrid/internal/session"
	"yeargrid/internal/session/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		SessionBackend: "sqlite",
		SQLiteDBPath:   "/tmp/x.db",
		StateCacheSize: 10,
		StateCacheTTL:  time.Minute,
		SessionMaxAge:  time.Hour,
	}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, got.Type)
	assert.Equal(t, 10, got.CacheSize)
	assert.Equal(t, time.Hour, got.MaxAge)

	_, err = FromAppConfig(&config.Config{SessionBackend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid: memory, sqlite")

	err = Config{Type: "redis"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid: memory, sqlite")

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateMemoryStore(t *testing.T) {
	res, err := NewFactory(nil).CreateStateStore(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.Cleanup)
}

func TestCreateCachedSQLiteStore(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateStateStore(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "state.db"),
		CacheSize:    5,
		CacheTTL:     time.Minute,
		MaxAge:       time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &session.CachedStore{}, res.Store)
	require.NoError(t, res.Store.Save(ctx, "sid", core.InitialState()))
	_, ok, err := res.Store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, session.Ping(ctx, res.Store))

	mctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- res.Maintain(mctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Maintain did not stop")
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	_, err := f.CreateStateStore(context.Background(), Config{Type: "redis"})
	assert.Error(t, err)
	_, err = f.CreateStateStore(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

