package variational

import (
	"context"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// PriceInstrument returns the venue's mark and greeks for one instrument.
func (c *Client) PriceInstrument(ctx context.Context, instrument models.Instrument) (*Single[models.InstrumentPrice], error) {
	if err := instrument.Validate(); err != nil {
		return nil, err
	}
	return doSingle[models.InstrumentPrice](ctx, c, postRequest("/price/instrument", instrument))
}

// PriceStructure prices every leg and the structure as a whole.
func (c *Client) PriceStructure(ctx context.Context, structure models.Structure) (*Single[models.StructurePriceResponse], error) {
	return doSingle[models.StructurePriceResponse](ctx, c, postRequest("/price/structure", structure))
}
