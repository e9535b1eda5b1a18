package variational

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// QuoteRequest is the maker's two-sided answer to an RFQ.
type QuoteRequest struct {
	RFQID         uuid.UUID           `json:"rfq_id"`
	ExpiresAt     time.Time           `json:"expires_at"`
	LegQuotes     []models.LegQuote   `json:"leg_quotes"`
	PoolStrategy  models.PoolStrategy `json:"pool_strategy"`
	ClientQuoteID *string             `json:"client_quote_id"`
}

func (r QuoteRequest) validate() error {
	if r.RFQID == uuid.Nil {
		return fmt.Errorf("variational: quote requires rfq_id")
	}
	if len(r.LegQuotes) == 0 {
		return fmt.Errorf("variational: quote requires at least one leg quote")
	}
	return r.PoolStrategy.Validate()
}

type replaceQuoteRequest struct {
	ParentQuoteID uuid.UUID `json:"parent_quote_id"`
	QuoteRequest
}

type acceptQuoteRequest struct {
	ParentQuoteID uuid.UUID        `json:"parent_quote_id"`
	RFQID         uuid.UUID        `json:"rfq_id"`
	Side          models.TradeSide `json:"side"`
}

type lastLookRequest struct {
	ParentQuoteID uuid.UUID            `json:"parent_quote_id"`
	RFQID         uuid.UUID            `json:"rfq_id"`
	Action        models.RequestAction `json:"action"`
}

type idRequest struct {
	ID uuid.UUID `json:"id"`
}

// AcceptQuote takes a maker's quote on the given side.
func (c *Client) AcceptQuote(ctx context.Context, rfqID, parentQuoteID uuid.UUID, side models.TradeSide) (*Single[models.QuoteAcceptResponse], error) {
	return doSingle[models.QuoteAcceptResponse](ctx, c, postRequest("/quotes/accept", acceptQuoteRequest{
		ParentQuoteID: parentQuoteID,
		RFQID:         rfqID,
		Side:          side,
	}))
}

func (c *Client) CancelAllQuotes(ctx context.Context) (*Single[bool], error) {
	return doSingle[bool](ctx, c, postRequest("/quotes/cancel_all", nil))
}

func (c *Client) CancelQuote(ctx context.Context, id uuid.UUID) (*Single[bool], error) {
	return doSingle[bool](ctx, c, postRequest("/quotes/cancel", idRequest{ID: id}))
}

// CreateQuote submits a new quote against an open RFQ.
func (c *Client) CreateQuote(ctx context.Context, req QuoteRequest) (*Single[models.Quote], error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return doSingle[models.Quote](ctx, c, postRequest("/quotes/new", req))
}

// ReplaceQuote swaps an existing quote for a new one atomically.
func (c *Client) ReplaceQuote(ctx context.Context, parentQuoteID uuid.UUID, req QuoteRequest) (*Single[models.Quote], error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return doSingle[models.Quote](ctx, c, postRequest("/quotes/replace", replaceQuoteRequest{
		ParentQuoteID: parentQuoteID,
		QuoteRequest:  req,
	}))
}

// MakerLastLook confirms or rejects an accepted quote during last look.
func (c *Client) MakerLastLook(ctx context.Context, rfqID, parentQuoteID uuid.UUID, action models.RequestAction) (*Single[models.MakerLastLookResponse], error) {
	return doSingle[models.MakerLastLookResponse](ctx, c, postRequest("/quotes/maker_last_look", lastLookRequest{
		ParentQuoteID: parentQuoteID,
		RFQID:         rfqID,
		Action:        action,
	}))
}

// GetQuotes honours Filter.ID.
func (c *Client) GetQuotes(ctx context.Context, filter Filter, page Cursor) (*Page[models.Quote], error) {
	return doPage[models.Quote](ctx, c, getRequest("/quotes", withCursor(Filter{ID: filter.ID}.values(), page)))
}

func (c *Client) GetQuotesReceived(ctx context.Context, filter Filter, page Cursor) (*Page[models.Quote], error) {
	return doPage[models.Quote](ctx, c, getRequest("/quotes/received", withCursor(Filter{ID: filter.ID}.values(), page)))
}

func (c *Client) GetQuotesSent(ctx context.Context, filter Filter, page Cursor) (*Page[models.Quote], error) {
	return doPage[models.Quote](ctx, c, getRequest("/quotes/sent", withCursor(Filter{ID: filter.ID}.values(), page)))
}
