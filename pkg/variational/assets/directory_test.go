package assets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/models"
)

type fakeSource struct {
	calls    atomic.Int32
	verified []bool
	mu       sync.Mutex
	assets   models.SupportedAssets
	err      error
	delay    time.Duration
}

func (f *fakeSource) GetSupportedAssets(_ context.Context, verified bool) (*variational.Single[models.SupportedAssets], error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.verified = append(f.verified, verified)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &variational.Single[models.SupportedAssets]{Result: f.assets}, nil
}

func listing() models.SupportedAssets {
	return models.SupportedAssets{
		"ETH": {{Asset: "ETH", AssetName: "Ether", Precision: 18}},
		"PEPE": {{
			Asset:     "PEPE",
			Precision: 18,
			IsDex:     true,
			DexTokenDetails: &models.DexTokenDetails{
				Network:           models.DexNetworkETH,
				UnderlyingAddress: common.HexToAddress("0x6982508145454ce325ddbe47a25d4ec3d2311933"),
			},
		}},
	}
}

func TestSupportedKeys(t *testing.T) {
	assert.Equal(t, "variational:assets:supported", SupportedAssetsKey(false))
	assert.Equal(t, "variational:assets:supported:verified", SupportedAssetsKey(true))
}

func TestDirectoryMemoryTTL(t *testing.T) {
	src := &fakeSource{assets: listing()}
	now := time.Unix(1700000000, 0)
	dir := NewDirectory(src, WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	got, err := dir.Supported(ctx, false)
	require.NoError(t, err)
	assert.Contains(t, got, "ETH")

	_, err = dir.Supported(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())

	_, err = dir.Supported(ctx, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
	assert.Equal(t, []bool{false, true}, src.verified)

	now = now.Add(time.Minute)
	_, err = dir.Supported(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestDirectorySharesConcurrentMisses(t *testing.T) {
	src := &fakeSource{assets: listing(), delay: 50 * time.Millisecond}
	dir := NewDirectory(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dir.Supported(context.Background(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestDirectorySourceError(t *testing.T) {
	boom := errors.New("boom")
	dir := NewDirectory(&fakeSource{err: boom})
	_, err := dir.Supported(context.Background(), false)
	require.ErrorIs(t, err, boom)

	_, _, err = dir.Lookup(context.Background(), models.Spot("ETH", nil))
	require.ErrorIs(t, err, boom)
}

func TestDirectoryLookup(t *testing.T) {
	dir := NewDirectory(&fakeSource{assets: listing()})
	ctx := context.Background()

	details, ok, err := dir.Lookup(ctx, models.PerpetualFuture("ETH", nil))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ether", details.AssetName)

	_, ok, err = dir.Lookup(ctx, models.Spot("PEPE", &models.DexTokenDetails{Network: models.DexNetworkBSC}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(redis.RedisConf{Host: mr.Addr()})
	require.NoError(t, err)
	return mr, store
}

func TestDirectoryRedisStoreSharedAcrossInstances(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()

	first := &fakeSource{assets: listing()}
	_, err := NewDirectory(first, WithStore(store)).Supported(ctx, true)
	require.NoError(t, err)
	assert.True(t, mr.Exists(SupportedAssetsKey(true)))
	assert.Greater(t, mr.TTL(SupportedAssetsKey(true)), time.Duration(0))

	second := &fakeSource{err: errors.New("should not be called")}
	got, err := NewDirectory(second, WithStore(store)).Supported(ctx, true)
	require.NoError(t, err)
	assert.Zero(t, second.calls.Load())
	require.Contains(t, got, "PEPE")
	assert.True(t, listing()["PEPE"][0].DexTokenDetails.Equal(got["PEPE"][0].DexTokenDetails))
}

func TestDirectoryRedisExpiry(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	src := &fakeSource{assets: listing()}
	dir := NewDirectory(src, WithStore(store), WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	_, err := dir.Supported(ctx, false)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	mr.FastForward(2 * time.Minute)
	_, err = dir.Supported(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestDirectoryInvalidate(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()
	src := &fakeSource{assets: listing()}
	dir := NewDirectory(src, WithStore(store))

	_, err := dir.Supported(ctx, false)
	require.NoError(t, err)
	require.NoError(t, dir.Invalidate(ctx))
	assert.False(t, mr.Exists(SupportedAssetsKey(false)))

	_, err = dir.Supported(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

type brokenStore struct{ sets int }

func (b *brokenStore) GetCtx(context.Context, string, any) error { return errors.New("connection refused") }
func (b *brokenStore) SetWithExpireCtx(context.Context, string, any, time.Duration) error {
	b.sets++
	return errors.New("connection refused")
}
func (b *brokenStore) DelCtx(context.Context, ...string) error { return errors.New("connection refused") }
func (b *brokenStore) IsNotFound(error) bool                   { return false }

func TestDirectoryIgnoresBrokenStore(t *testing.T) {
	store := &brokenStore{}
	src := &fakeSource{assets: listing()}
	dir := NewDirectory(src, WithStore(store))

	got, err := dir.Supported(context.Background(), false)
	require.NoError(t, err)
	assert.Contains(t, got, "ETH")
	assert.Equal(t, 1, store.sets)

	require.Error(t, dir.Invalidate(context.Background()))
}
