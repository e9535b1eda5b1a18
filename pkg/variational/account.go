package variational

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// GetAddresses lists registered wallet addresses, optionally for one company.
func (c *Client) GetAddresses(ctx context.Context, company uuid.UUID) (*List[models.Address], error) {
	return doList[models.Address](ctx, c, getRequest("/addresses", Filter{Company: company}.values()))
}

// GetCompanies honours Filter.ID.
func (c *Client) GetCompanies(ctx context.Context, filter Filter, page Cursor) (*Page[models.Company], error) {
	return doPage[models.Company](ctx, c, getRequest("/companies", withCursor(Filter{ID: filter.ID}.values(), page)))
}

// GetMe describes the API key in use.
func (c *Client) GetMe(ctx context.Context) (*Single[models.AuthContext], error) {
	return doSingle[models.AuthContext](ctx, c, getRequest("/me", nil))
}

func (c *Client) GetStatus(ctx context.Context) (*Single[models.Status], error) {
	return doSingle[models.Status](ctx, c, getRequest("/status", nil))
}

// GetSupportedAssets returns every listed asset keyed by symbol; verified
// restricts the result to verified listings.
func (c *Client) GetSupportedAssets(ctx context.Context, verified bool) (*Single[models.SupportedAssets], error) {
	q := url.Values{}
	if verified {
		q.Set("verified", "true")
	}
	return doSingle[models.SupportedAssets](ctx, c, getRequest("/metadata/supported_assets", q))
}
