package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

const appConfigJSON = `{
	"configurations": [
		{
			"configurationId": "config-1",
			"configurationName": "playground",
			"apiUrl": "https://api.playground.klarna.com",
			"username": "PK12345_abc",
			"password": "secret"
		},
		{
			"configurationId": "config-2",
			"configurationName": "broken",
			"apiUrl": "https://api.klarna.com",
			"username": "",
			"password": ""
		}
	],
	"channelToConfigurationId": {
		"channel-1": "config-1",
		"channel-2": "config-2",
		"channel-3": "config-missing"
	}
}`

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app-config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestGetConfigurationForChannel(t *testing.T) {
	resolver, err := NewFileResolver(writeConfigFile(t, appConfigJSON), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("mapped and fully configured", func(t *testing.T) {
		cfg, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
		require.NoError(t, err)
		assert.Equal(t, "https://api.playground.klarna.com", cfg.APIURL)
		assert.Equal(t, "PK12345_abc", cfg.Username)
	})

	t.Run("mapped but incomplete", func(t *testing.T) {
		_, err := resolver.GetConfigurationForChannel(ctx, "channel-2")
		assert.ErrorIs(t, err, errors.ErrConfigurationInvalid)
	})

	t.Run("mapping points at unknown entry", func(t *testing.T) {
		_, err := resolver.GetConfigurationForChannel(ctx, "channel-3")
		assert.ErrorIs(t, err, errors.ErrConfigurationMissing)
	})

	t.Run("unmapped channel", func(t *testing.T) {
		_, err := resolver.GetConfigurationForChannel(ctx, "channel-unknown")
		assert.ErrorIs(t, err, errors.ErrConfigurationMissing)
	})
}

func TestNewFileResolverErrors(t *testing.T) {
	_, err := NewFileResolver(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.Error(t, err)

	_, err = NewFileResolver(writeConfigFile(t, `{"configurations": [`), zap.NewNop())
	assert.Error(t, err)
}

func TestReloadKeepsPreviousConfigOnParseError(t *testing.T) {
	path := writeConfigFile(t, appConfigJSON)
	resolver, err := NewFileResolver(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	assert.Error(t, resolver.Reload())

	cfg, err := resolver.GetConfigurationForChannel(context.Background(), "channel-1")
	require.NoError(t, err)
	assert.Equal(t, "PK12345_abc", cfg.Username)
}

func TestWatchSurvivesRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app-config.json")
	require.NoError(t, os.WriteFile(path, []byte(appConfigJSON), 0o600))

	resolver, err := NewFileResolver(path, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = resolver.Watch(ctx)
	}()

	// Confirm the watch is attached before mutating the file for real: keep
	// rewriting a marker config until its reload is observed, since writes
	// landing before watcher.Add are never delivered.
	primed := strings.Replace(appConfigJSON, "PK12345_abc", "PK00000_prime", 1)
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(primed), 0o600); err != nil {
			return false
		}
		cfg, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
		return err == nil && cfg.Username == "PK00000_prime"
	}, 3*time.Second, 25*time.Millisecond, "watch must come live")

	// Atomic write: new content to a sibling file, then rename over the path.
	updated := strings.Replace(appConfigJSON, "PK12345_abc", "PK99999_xyz", 1)
	next := filepath.Join(dir, "app-config.json.next")
	require.NoError(t, os.WriteFile(next, []byte(updated), 0o600))
	require.NoError(t, os.Rename(next, path))

	require.Eventually(t, func() bool {
		cfg, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
		return err == nil && cfg.Username == "PK99999_xyz"
	}, 3*time.Second, 25*time.Millisecond, "rename-over must be picked up")

	// The re-attached watch keeps following plain writes too.
	reverted := appConfigJSON
	require.NoError(t, os.WriteFile(path, []byte(reverted), 0o600))
	require.Eventually(t, func() bool {
		cfg, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
		return err == nil && cfg.Username == "PK12345_abc"
	}, 3*time.Second, 25*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
}

type countingResolver struct {
	inner Resolver
	calls int
}

func (r *countingResolver) GetConfigurationForChannel(ctx context.Context, channelID string) (*ChannelConfig, error) {
	r.calls++
	return r.inner.GetConfigurationForChannel(ctx, channelID)
}

func TestCachedResolver(t *testing.T) {
	file, err := NewFileResolver(writeConfigFile(t, appConfigJSON), zap.NewNop())
	require.NoError(t, err)

	counting := &countingResolver{inner: file}
	cache := newMemoryCache()
	resolver := NewCachedResolver(counting, cache, time.Minute, zap.NewNop())

	ctx := context.Background()

	first, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
	require.NoError(t, err)
	second, err := resolver.GetConfigurationForChannel(ctx, "channel-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.calls, "second lookup must come from the cache")
	assert.Equal(t, 1, cache.sets)

	// Failed lookups are not cached
	_, err = resolver.GetConfigurationForChannel(ctx, "channel-unknown")
	require.ErrorIs(t, err, errors.ErrConfigurationMissing)
	_, err = resolver.GetConfigurationForChannel(ctx, "channel-unknown")
	require.ErrorIs(t, err, errors.ErrConfigurationMissing)
	assert.Equal(t, 3, counting.calls)
}
