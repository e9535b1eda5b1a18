// Package assets caches the venue's supported-asset listing and resolves
// instruments against it.
package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/syncx"

	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/models"
	"github.com/variational-research/variational-go/pkg/variational/precision"
)

const DefaultTTL = 5 * time.Minute

// ErrCacheMiss is reported by stores built with NewRedisStore for absent keys.
var ErrCacheMiss = errors.New("assets: cache miss")

// Source is the slice of *variational.Client the directory reads from.
type Source interface {
	GetSupportedAssets(ctx context.Context, verified bool) (*variational.Single[models.SupportedAssets], error)
}

// Store is a shared second-level cache. go-zero's cache.Cache satisfies it.
type Store interface {
	GetCtx(ctx context.Context, key string, val any) error
	SetWithExpireCtx(ctx context.Context, key string, val any, expire time.Duration) error
	DelCtx(ctx context.Context, keys ...string) error
	IsNotFound(err error) bool
}

// NewRedisStore returns a go-zero cache node over a single Redis instance.
func NewRedisStore(conf redis.RedisConf) (cache.Cache, error) {
	if conf.Type == "" {
		conf.Type = redis.NodeType
	}
	rds, err := redis.NewRedis(conf)
	if err != nil {
		return nil, fmt.Errorf("assets: connect redis %s: %w", conf.Host, err)
	}
	return cache.NewNode(rds, syncx.NewSingleFlight(), cache.NewStat("variational-assets"), ErrCacheMiss), nil
}

type entry struct {
	assets  models.SupportedAssets
	expires time.Time
}

// Directory serves supported assets from memory, then from the optional
// Store, then from the API. Concurrent misses for the same listing share one
// upstream call.
type Directory struct {
	source Source
	store  Store
	ttl    time.Duration
	clock  func() time.Time
	flight syncx.SingleFlight

	mu     sync.RWMutex
	memory map[bool]entry
}

type Option func(*Directory)

// WithStore adds a shared cache behind the in-memory copy.
func WithStore(store Store) Option {
	return func(d *Directory) {
		d.store = store
	}
}

// WithTTL sets how long a listing is reused. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(d *Directory) {
		if clock != nil {
			d.clock = clock
		}
	}
}

func NewDirectory(source Source, opts ...Option) *Directory {
	d := &Directory{
		source: source,
		ttl:    DefaultTTL,
		clock:  time.Now,
		flight: syncx.NewSingleFlight(),
		memory: make(map[bool]entry, 2),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Supported returns the listing, restricted to verified assets when asked.
func (d *Directory) Supported(ctx context.Context, verified bool) (models.SupportedAssets, error) {
	if assets, ok := d.fromMemory(verified); ok {
		return assets, nil
	}
	key := SupportedAssetsKey(verified)
	v, err := d.flight.Do(key, func() (any, error) {
		return d.load(ctx, key, verified)
	})
	if err != nil {
		return nil, err
	}
	return v.(models.SupportedAssets), nil
}

func (d *Directory) fromMemory(verified bool) (models.SupportedAssets, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.memory[verified]
	if !ok || !d.clock().Before(e.expires) {
		return nil, false
	}
	return e.assets, true
}

func (d *Directory) remember(verified bool, assets models.SupportedAssets) {
	d.mu.Lock()
	d.memory[verified] = entry{assets: assets, expires: d.clock().Add(d.ttl)}
	d.mu.Unlock()
}

func (d *Directory) load(ctx context.Context, key string, verified bool) (models.SupportedAssets, error) {
	logger := logx.WithContext(ctx)
	if d.store != nil {
		var cached models.SupportedAssets
		err := d.store.GetCtx(ctx, key, &cached)
		switch {
		case err == nil && cached != nil:
			d.remember(verified, cached)
			return cached, nil
		case err != nil && !d.store.IsNotFound(err):
			logger.Errorf("assets: read %s: %v", key, err)
		}
	}

	if d.source == nil {
		return nil, fmt.Errorf("assets: no source configured")
	}
	resp, err := d.source.GetSupportedAssets(ctx, verified)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch supported assets: %w", err)
	}
	assets := resp.Result
	if assets == nil {
		assets = models.SupportedAssets{}
	}
	d.remember(verified, assets)

	if d.store != nil {
		if err := d.store.SetWithExpireCtx(ctx, key, assets, d.ttl); err != nil {
			logger.Errorf("assets: write %s: %v", key, err)
		}
	}
	return assets, nil
}

// Lookup resolves the supported-asset entry for the instrument's underlying
// against the full listing.
func (d *Directory) Lookup(ctx context.Context, instrument models.Instrument) (models.SupportedAssetDetails, bool, error) {
	assets, err := d.Supported(ctx, false)
	if err != nil {
		return models.SupportedAssetDetails{}, false, err
	}
	details, ok := precision.FindAssetDetails(instrument, assets)
	return details, ok, nil
}

// Invalidate drops both listings from memory and from the store.
func (d *Directory) Invalidate(ctx context.Context) error {
	d.mu.Lock()
	d.memory = make(map[bool]entry, 2)
	d.mu.Unlock()
	if d.store == nil {
		return nil
	}
	if err := d.store.DelCtx(ctx, SupportedAssetsKey(false), SupportedAssetsKey(true)); err != nil {
		return fmt.Errorf("assets: invalidate: %w", err)
	}
	return nil
}
