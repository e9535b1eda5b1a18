package variational

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx/logtest"

	"github.com/variational-research/variational-go/pkg/variational/vartest"
)

const (
	testKey    = "3b7c2f0e-4a0a-4c4e-9b7a-0d9f1e2a3b4c"
	testSecret = "a1b2c3d4e5f60718293a4b5c6d7e8f90"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestClient(t *testing.T, srv *vartest.Server, opts ...ClientOption) (*Client, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	base := []ClientOption{
		WithBaseURL(srv.BaseURL()),
		WithSleeper(sleeper.sleep),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	}
	client, err := NewClient(testKey, testSecret, append(base, opts...)...)
	require.NoError(t, err)
	return client, sleeper
}

func TestNewClientValidatesCredentials(t *testing.T) {
	_, err := NewClient("", testSecret)
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewClient(testKey, "not-hex")
	require.Error(t, err)

	client, err := NewClient(testKey, "0x"+testSecret)
	require.NoError(t, err)
	assert.Equal(t, MainnetURL, client.BaseURL())
}

func TestClientOptions(t *testing.T) {
	t.Run("WithTestnet", func(t *testing.T) {
		client, err := NewClient(testKey, testSecret, WithTestnet(true))
		require.NoError(t, err)
		assert.Equal(t, TestnetURL, client.BaseURL())
	})

	t.Run("WithBaseURL trims trailing slash", func(t *testing.T) {
		client, err := NewClient(testKey, testSecret, WithBaseURL("http://localhost:8080/v1/"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/v1", client.BaseURL())
	})

	t.Run("WithHTTPClient_nil", func(t *testing.T) {
		client, err := NewClient(testKey, testSecret, WithHTTPClient(nil))
		require.NoError(t, err)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("WithRequestTimeout", func(t *testing.T) {
		custom := &http.Client{Timeout: time.Minute}
		client, err := NewClient(testKey, testSecret, WithHTTPClient(custom), WithRequestTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
		assert.Equal(t, time.Minute, custom.Timeout, "caller's client must not be mutated")
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(testKey, testSecret)
		require.NoError(t, err)
		assert.True(t, client.retryRateLimits)
		assert.Zero(t, client.maxRateLimitRetries)
		assert.Equal(t, RateLimitResetHeader, client.rateLimit.Header)
		assert.Equal(t, DefaultBackoff(), client.backoff)
	})
}

func TestSignRequestHeaders(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodPost, "/quotes/cancel", vartest.Result(true))
	client, _ := newTestClient(t, srv)

	_, err := client.send(context.Background(), postRequest("/quotes/cancel", idRequest{}))
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, "1700000000000", got.Header.Get(headerTimestamp))
	assert.Equal(t, testKey, got.Header.Get(headerKey))

	secret, err := hex.DecodeString(testSecret)
	require.NoError(t, err)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(testKey + "|1700000000000|POST|/v1/quotes/cancel|"))
	mac.Write(got.Body)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), got.Header.Get(headerSignature))
}

func TestSignRequestWithoutBodyIncludesQuery(t *testing.T) {
	signer, err := NewHMACSigner(testKey, testSecret)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "https://api.variational.io/v1/transfers?id=abc&pool=def", nil)
	require.NoError(t, signer.SignRequest(req, nil, time.UnixMilli(42)))

	secret, _ := hex.DecodeString(testSecret)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(testKey + "|42|GET|/v1/transfers?id=abc&pool=def"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), req.Header.Get(headerSignature))
}

func TestSendRetriesRateLimitsThenSucceeds(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/status",
		vartest.RateLimited(150),
		vartest.RateLimited(300),
		vartest.Result(map[string]any{"server_timestamp_ms": 1}),
	)
	var timestamps atomic.Int64
	client, sleeper := newTestClient(t, srv, WithClock(func() time.Time {
		return time.UnixMilli(1700000000000 + timestamps.Add(1))
	}))

	status, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Result.ServerTimestampMs)

	require.Len(t, sleeper.delays, 2)
	assert.GreaterOrEqual(t, sleeper.delays[0], 150*time.Millisecond)
	assert.GreaterOrEqual(t, sleeper.delays[1], 300*time.Millisecond)
	assert.Equal(t, 3, srv.Calls(http.MethodGet, "/status"))

	// every attempt is signed afresh
	reqs := srv.Requests()
	seen := map[string]bool{}
	for _, r := range reqs {
		seen[r.Header.Get(headerTimestamp)] = true
	}
	assert.Len(t, seen, 3)
}

func TestSendLogsRateLimitRetryAtSlowLevel(t *testing.T) {
	logs := logtest.NewCollector(t)
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/status",
		vartest.RateLimited(150),
		vartest.Result(map[string]any{"server_timestamp_ms": 1}),
	)
	client, _ := newTestClient(t, srv, WithBackoff(BackoffConfig{Base: 100 * time.Millisecond, Factor: 2, Randomize: 0}))
	client.jitterSource = func() float64 { return 0.5 }

	_, err := client.GetStatus(context.Background())
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `"level":"slow"`)
	assert.Contains(t, out, "HTTP 429")
	assert.Contains(t, out, "reset 150ms + backoff 100ms")
}

func TestSendRateLimitWithoutHeaderIsFatal(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/status", vartest.RateLimited(-1))
	client, sleeper := newTestClient(t, srv)

	_, err := client.GetStatus(context.Background())
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.RateLimited())
	assert.Equal(t, 429, apiErr.Code)
	assert.Empty(t, sleeper.delays)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/status"))
}

func TestSendRateLimitRetriesDisabled(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/me", vartest.RateLimited(10))
	client, sleeper := newTestClient(t, srv, WithRateLimitRetries(false))

	_, err := client.GetMe(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.RateLimited())
	assert.Empty(t, sleeper.delays)
}

func TestSendMaxRateLimitRetries(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/me", vartest.RateLimited(10))
	client, sleeper := newTestClient(t, srv, WithMaxRateLimitRetries(2))

	_, err := client.GetMe(context.Background())
	require.Error(t, err)
	assert.Len(t, sleeper.delays, 2)
	assert.Equal(t, 3, srv.Calls(http.MethodGet, "/me"))
}

func TestSendBackoffGrowsAcrossRetries(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/me",
		vartest.RateLimited(0), vartest.RateLimited(0), vartest.RateLimited(0),
		vartest.Result(map[string]any{"role": "reader"}),
	)
	client, sleeper := newTestClient(t, srv, WithBackoff(BackoffConfig{Base: 100 * time.Millisecond, Factor: 2, Randomize: 0}))
	client.jitterSource = func() float64 { return 0.5 }

	_, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, sleeper.delays)
}

func TestSendAbsoluteRateLimitSignal(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/me",
		vartest.Response{Status: http.StatusTooManyRequests, Header: map[string]string{
			"X-RateLimit-Reset": strconv.FormatInt(now.Add(2*time.Second).UnixMilli(), 10),
		}},
		vartest.Result(map[string]any{"role": "writer"}),
	)
	client, sleeper := newTestClient(t, srv,
		WithClock(func() time.Time { return now }),
		WithRateLimitSignal(RateLimitSignal{Header: "x-ratelimit-reset", Absolute: true}),
	)

	_, err := client.GetMe(context.Background())
	require.NoError(t, err)
	require.Len(t, sleeper.delays, 1)
	assert.GreaterOrEqual(t, sleeper.delays[0], 2*time.Second)
}

func TestResetDelayClampsPastInstants(t *testing.T) {
	now := time.UnixMilli(10_000)
	h := http.Header{}
	h.Set("X-Reset", "5000")
	d, ok := RateLimitSignal{Header: "x-reset", Absolute: true}.resetDelay(h, now)
	require.True(t, ok)
	assert.Zero(t, d)

	h.Set("X-Reset", "garbage")
	_, ok = RateLimitSignal{Header: "x-reset"}.resetDelay(h, now)
	assert.False(t, ok)
}

func TestSendSurfacesAPIErrors(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodPost, "/rfqs/cancel", vartest.Error(http.StatusBadRequest, 1042, "rfq already closed"))
	srv.Enqueue(http.MethodGet, "/me", vartest.Response{Status: http.StatusBadGateway, Body: "upstream down"})
	client, sleeper := newTestClient(t, srv)

	_, err := client.CancelRFQ(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsAPIErrorCode(err, 1042))
	apiErr, _ := AsAPIError(err)
	assert.Equal(t, "rfq already closed", apiErr.Message)
	assert.Equal(t, srv.BaseURL()+"/rfqs/cancel", apiErr.URL)

	_, err = client.GetMe(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Zero(t, apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Empty(t, sleeper.delays)
}

func TestSendStopsWhenContextCancelledDuringSleep(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.Enqueue(http.MethodGet, "/me", vartest.RateLimited(60_000))
	client, err := NewClient(testKey, testSecret, WithBaseURL(srv.BaseURL()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetMe(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestResponseMetadata(t *testing.T) {
	srv := vartest.NewServer(t)
	srv.ReceivedAtMs = 1700000000123
	srv.Enqueue(http.MethodGet, "/portfolio/summary", vartest.Result(map[string]any{"sum_balance": "10.5"}))
	client, _ := newTestClient(t, srv)

	summary, err := client.GetPortfolioSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000123), summary.Meta.RequestReceivedAt)
	assert.Equal(t, "10.5", summary.Result.SumBalance.String())

	assert.True(t, metaFromHeader(http.Header{}).RequestReceivedAt.IsZero())
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
