package variational

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// RFQRequest asks the target companies to quote a structure.
type RFQRequest struct {
	Structure       models.Structure `json:"structure"`
	Qty             decimal.Decimal  `json:"qty"`
	ExpiresAt       time.Time        `json:"expires_at"`
	TargetCompanies []uuid.UUID      `json:"target_companies"`
}

func (r RFQRequest) validate() error {
	if len(r.Structure.Legs) == 0 {
		return fmt.Errorf("variational: rfq structure requires at least one leg")
	}
	for i, leg := range r.Structure.Legs {
		if leg.Ratio < 1 {
			return fmt.Errorf("variational: rfq leg %d ratio must be >= 1", i)
		}
		if err := leg.Instrument.Validate(); err != nil {
			return fmt.Errorf("variational: rfq leg %d: %w", i, err)
		}
	}
	if !r.Qty.IsPositive() {
		return fmt.Errorf("variational: rfq qty must be positive")
	}
	return nil
}

func (c *Client) CancelRFQ(ctx context.Context, id uuid.UUID) (*Single[bool], error) {
	return doSingle[bool](ctx, c, postRequest("/rfqs/cancel", idRequest{ID: id}))
}

// CreateRFQ opens a request for quotes.
func (c *Client) CreateRFQ(ctx context.Context, req RFQRequest) (*Single[models.RFQ], error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.TargetCompanies == nil {
		req.TargetCompanies = []uuid.UUID{}
	}
	return doSingle[models.RFQ](ctx, c, postRequest("/rfqs/new", req))
}

// GetRFQsReceived honours Filter.ID.
func (c *Client) GetRFQsReceived(ctx context.Context, filter Filter, page Cursor) (*Page[models.RFQ], error) {
	return doPage[models.RFQ](ctx, c, getRequest("/rfqs/received", withCursor(Filter{ID: filter.ID}.values(), page)))
}

func (c *Client) GetRFQsSent(ctx context.Context, filter Filter, page Cursor) (*Page[models.RFQ], error) {
	return doPage[models.RFQ](ctx, c, getRequest("/rfqs/sent", withCursor(Filter{ID: filter.ID}.values(), page)))
}
