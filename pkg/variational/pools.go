package variational

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// SettlementPoolRequest creates a bilateral pool with another company.
type SettlementPoolRequest struct {
	PoolName      string              `json:"pool_name"`
	CompanyOther  uuid.UUID           `json:"company_other"`
	CreatorParams models.MarginParams `json:"creator_params"`
	OtherParams   models.MarginParams `json:"other_params"`
}

func (c *Client) CreateSettlementPool(ctx context.Context, req SettlementPoolRequest) (*Single[models.SettlementPool], error) {
	if req.CompanyOther == uuid.Nil {
		return nil, fmt.Errorf("variational: settlement pool requires company_other")
	}
	return doSingle[models.SettlementPool](ctx, c, postRequest("/settlement_pools/new", req))
}

// GetSettlementPools honours Filter.ID.
func (c *Client) GetSettlementPools(ctx context.Context, filter Filter, page Cursor) (*Page[models.SettlementPool], error) {
	return doPage[models.SettlementPool](ctx, c, getRequest("/settlement_pools", withCursor(Filter{ID: filter.ID}.values(), page)))
}
