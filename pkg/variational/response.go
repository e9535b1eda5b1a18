package variational

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Meta is transport metadata attached to every successful response.
type Meta struct {
	// RequestReceivedAt is when the API server received the request; zero if
	// the server did not report it.
	RequestReceivedAt time.Time
}

// Single wraps an endpoint returning one object.
type Single[T any] struct {
	Result T
	Meta   Meta
}

// List wraps an unpaginated listing.
type List[T any] struct {
	Result []T
	Meta   Meta
}

// Cursor is the opaque next-page token returned by paginated endpoints. Its
// entries are merged into the query string of the following request.
type Cursor map[string]any

type Pagination struct {
	NextPage Cursor `json:"next_page"`
}

// Page wraps one page of a paginated listing.
type Page[T any] struct {
	Result     []T
	Pagination Pagination
	Meta       Meta
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool {
	return p != nil && len(p.Pagination.NextPage) > 0
}

func metaFromHeader(h http.Header) Meta {
	raw := strings.TrimSpace(h.Get(RequestReceivedHeader))
	if raw == "" {
		return Meta{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Meta{}
	}
	return Meta{RequestReceivedAt: time.UnixMilli(ms)}
}

func doSingle[T any](ctx context.Context, c *Client, req request) (*Single[T], error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result T `json:"result"`
	}
	if err := json.Unmarshal(raw.body, &envelope); err != nil {
		return nil, fmt.Errorf("variational: decode %s response: %w", req.endpoint, err)
	}
	return &Single[T]{Result: envelope.Result, Meta: metaFromHeader(raw.header)}, nil
}

func doList[T any](ctx context.Context, c *Client, req request) (*List[T], error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result []T `json:"result"`
	}
	if err := json.Unmarshal(raw.body, &envelope); err != nil {
		return nil, fmt.Errorf("variational: decode %s response: %w", req.endpoint, err)
	}
	return &List[T]{Result: envelope.Result, Meta: metaFromHeader(raw.header)}, nil
}

func doPage[T any](ctx context.Context, c *Client, req request) (*Page[T], error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result     []T        `json:"result"`
		Pagination Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(raw.body, &envelope); err != nil {
		return nil, fmt.Errorf("variational: decode %s response: %w", req.endpoint, err)
	}
	return &Page[T]{
		Result:     envelope.Result,
		Pagination: envelope.Pagination,
		Meta:       metaFromHeader(raw.header),
	}, nil
}
