package appconfig

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/json"
)

// Resolver yields validated provider credentials for a sales channel. The
// lookup is read-only and idempotent per invocation; callers never mutate the
// returned entry.
type Resolver interface {
	GetConfigurationForChannel(ctx context.Context, channelID string) (*ChannelConfig, error)
}

// FileResolver loads the payment app configuration from a JSON file and keeps
// it hot-reloaded when the file changes on disk.
type FileResolver struct {
	path string
	log  *zap.Logger

	mu  sync.RWMutex
	cfg *AppConfig
}

// NewFileResolver loads the configuration file once; call Watch to keep it
// fresh.
func NewFileResolver(path string, log *zap.Logger) (*FileResolver, error) {
	r := &FileResolver{path: path, log: log}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the configuration file. The previous configuration stays in
// place when the new file cannot be parsed.
func (r *FileResolver) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return errors.Wrap(err, "failed to read app configuration")
	}
	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return errors.Wrap(err, "failed to parse app configuration")
	}
	r.mu.Lock()
	r.cfg = &cfg
	r.mu.Unlock()
	return nil
}

// GetConfigurationForChannel implements Resolver.
func (r *FileResolver) GetConfigurationForChannel(_ context.Context, channelID string) (*ChannelConfig, error) {
	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()
	return GetConfigurationForChannel(cfg, channelID)
}

// Watch reloads the configuration whenever the file is rewritten, until the
// context is canceled.
func (r *FileResolver) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create config watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(r.path); err != nil {
		return errors.Wrap(err, "failed to watch app configuration")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Atomic writers rename a new file over the path; the watch
				// dies with the old inode and must be re-attached.
				if err := watcher.Add(r.path); err != nil {
					r.log.Error("Failed to re-watch app configuration", zap.Error(err), zap.String("path", r.path))
					continue
				}
			} else if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.Reload(); err != nil {
				r.log.Error("Failed to reload app configuration", zap.Error(err))
				continue
			}
			r.log.Info("App configuration reloaded", zap.String("path", r.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("Config watcher error", zap.Error(err))
		}
	}
}

// Cache is the minimal read-through cache used by CachedResolver. The Redis
// implementation lives in cache.go; tests substitute an in-memory one.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// CachedResolver is a read-through cache over another resolver. Failed
// lookups are never cached; a stale hit is served until its TTL runs out.
type CachedResolver struct {
	inner Resolver
	cache Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedResolver wraps inner with a read-through cache.
func NewCachedResolver(inner Resolver, cache Cache, ttl time.Duration, log *zap.Logger) *CachedResolver {
	return &CachedResolver{inner: inner, cache: cache, ttl: ttl, log: log}
}

// GetConfigurationForChannel implements Resolver.
func (r *CachedResolver) GetConfigurationForChannel(ctx context.Context, channelID string) (*ChannelConfig, error) {
	key := "appconfig:channel:" + channelID
	if data, ok := r.cache.Get(ctx, key); ok {
		var cfg ChannelConfig
		if err := json.Unmarshal(data, &cfg); err == nil {
			return &cfg, nil
		}
		r.log.Warn("Discarding undecodable cached configuration", zap.String("channel_id", channelID))
	}

	cfg, err := r.inner.GetConfigurationForChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cfg); err == nil {
		r.cache.Set(ctx, key, data, r.ttl)
	}
	return cfg, nil
}
