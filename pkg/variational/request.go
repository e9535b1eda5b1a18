package variational

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

type request struct {
	method   string
	endpoint string
	payload  any
	query    url.Values
}

type rawResponse struct {
	body   []byte
	header http.Header
}

func getRequest(endpoint string, query url.Values) request {
	return request{method: http.MethodGet, endpoint: endpoint, query: query}
}

func postRequest(endpoint string, payload any) request {
	return request{method: http.MethodPost, endpoint: endpoint, payload: payload}
}

// send performs one logical call. Only HTTP 200 succeeds. A 429 carrying the
// reset header is retried after the announced delay plus a growing backoff;
// anything else becomes an *APIError.
func (c *Client) send(ctx context.Context, req request) (*rawResponse, error) {
	fullURL := c.baseURL + req.endpoint
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var body []byte
	if req.payload != nil {
		encoded, err := json.Marshal(req.payload)
		if err != nil {
			return nil, fmt.Errorf("variational: encode %s payload: %w", req.endpoint, err)
		}
		body = encoded
	}

	backoff := newBackoff(c.backoff, c.jitterSource)
	for retries := 0; ; retries++ {
		status, header, respBody, err := c.attempt(ctx, req.method, fullURL, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			return &rawResponse{body: respBody, header: header}, nil
		}

		if status == http.StatusTooManyRequests && c.retryRateLimits &&
			(c.maxRateLimitRetries == 0 || retries < c.maxRateLimitRetries) {
			if floor, ok := c.rateLimit.resetDelay(header, c.clock()); ok {
				extra := backoff.NextDelay()
				delay := floor + extra
				logx.WithContext(ctx).Slowf("variational: HTTP 429 Too Many Requests from %s %s, retry %d after %s (reset %s + backoff %s)",
					req.method, req.endpoint, retries+1, delay, floor, extra)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
		}
		return nil, newAPIError(fullURL, status, respBody)
	}
}

func (c *Client) attempt(ctx context.Context, method, fullURL string, body []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("variational: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if err := c.signer.SignRequest(httpReq, body, c.clock()); err != nil {
		return 0, nil, nil, fmt.Errorf("variational: sign request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, nil, ctx.Err()
		}
		return 0, nil, nil, fmt.Errorf("variational: %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("variational: read response: %w", err)
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

// resetDelay reports how long the server asked us to wait. ok is false when
// the header is absent or unparsable, which makes the 429 fatal.
func (s RateLimitSignal) resetDelay(header http.Header, now time.Time) (time.Duration, bool) {
	raw := strings.TrimSpace(header.Get(s.Header))
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	var delay time.Duration
	if s.Absolute {
		delay = time.UnixMilli(int64(ms)).Sub(now)
	} else {
		delay = time.Duration(ms * float64(time.Millisecond))
	}
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// Filter narrows listing endpoints. Zero-valued fields are not sent, and each
// endpoint only honours the fields it documents.
type Filter struct {
	ID      uuid.UUID
	Pool    uuid.UUID
	Company uuid.UUID
}

func (f Filter) values() url.Values {
	q := url.Values{}
	if f.ID != uuid.Nil {
		q.Set("id", f.ID.String())
	}
	if f.Pool != uuid.Nil {
		q.Set("pool", f.Pool.String())
	}
	if f.Company != uuid.Nil {
		q.Set("company", f.Company.String())
	}
	return q
}

// withCursor merges the opaque page cursor into the query string.
func withCursor(q url.Values, cursor Cursor) url.Values {
	if q == nil {
		q = url.Values{}
	}
	for k, v := range cursor {
		if v == nil {
			continue
		}
		q.Set(k, cursorValue(v))
	}
	return q
}

func cursorValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
