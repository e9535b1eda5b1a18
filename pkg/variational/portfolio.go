package variational

import (
	"context"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

func (c *Client) GetPortfolioAggregatedPositions(ctx context.Context, page Cursor) (*Page[models.AggregatedPosition], error) {
	return doPage[models.AggregatedPosition](ctx, c, getRequest("/portfolio/positions/aggregated", withCursor(nil, page)))
}

// GetPortfolioAssets honours Filter.Pool.
func (c *Client) GetPortfolioAssets(ctx context.Context, filter Filter, page Cursor) (*Page[models.Asset], error) {
	return doPage[models.Asset](ctx, c, getRequest("/portfolio/assets", withCursor(Filter{Pool: filter.Pool}.values(), page)))
}

// GetPortfolioPositions honours Filter.Pool.
func (c *Client) GetPortfolioPositions(ctx context.Context, filter Filter, page Cursor) (*Page[models.Position], error) {
	return doPage[models.Position](ctx, c, getRequest("/portfolio/positions", withCursor(Filter{Pool: filter.Pool}.values(), page)))
}

func (c *Client) GetPortfolioSummary(ctx context.Context) (*Single[models.PortfolioSummary], error) {
	return doSingle[models.PortfolioSummary](ctx, c, getRequest("/portfolio/summary", nil))
}

// GetPortfolioTrades honours Filter.Pool and Filter.ID.
func (c *Client) GetPortfolioTrades(ctx context.Context, filter Filter, page Cursor) (*Page[models.Trade], error) {
	q := Filter{Pool: filter.Pool, ID: filter.ID}.values()
	return doPage[models.Trade](ctx, c, getRequest("/portfolio/trades", withCursor(q, page)))
}
