package variational

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// TransferRequest moves collateral into or out of a settlement pool.
type TransferRequest struct {
	Asset              string              `json:"asset"`
	Qty                decimal.Decimal     `json:"qty"`
	TargetPoolLocation uuid.UUID           `json:"target_pool_location"`
	TransferType       models.TransferType `json:"transfer_type"`
}

// PermitRequest asks the server for an EIP-712 permit template.
type PermitRequest struct {
	PoolAddress        common.Address   `json:"pool_address"`
	Allowance          models.Allowance `json:"allowance"`
	SecondsUntilExpiry *int             `json:"seconds_until_expiry"`
}

// PermitTemplate is the EIP-712 typed-data document returned by
// GenerateTransferPermit: types, primaryType, domain and message.
type PermitTemplate map[string]any

type submitPermitRequest struct {
	Message   PermitTemplate `json:"message"`
	Signature string         `json:"signature"`
}

func (c *Client) CreateTransfer(ctx context.Context, req TransferRequest) (*Single[models.Transfer], error) {
	if !req.Qty.IsPositive() {
		return nil, fmt.Errorf("variational: transfer qty must be positive")
	}
	return doSingle[models.Transfer](ctx, c, postRequest("/transfers/new", req))
}

// GetTransfers honours Filter.Pool and Filter.ID.
func (c *Client) GetTransfers(ctx context.Context, filter Filter, page Cursor) (*Page[models.Transfer], error) {
	q := Filter{Pool: filter.Pool, ID: filter.ID}.values()
	return doPage[models.Transfer](ctx, c, getRequest("/transfers", withCursor(q, page)))
}

func (c *Client) GenerateTransferPermit(ctx context.Context, req PermitRequest) (*Single[PermitTemplate], error) {
	return doSingle[PermitTemplate](ctx, c, postRequest("/transfers/permit/template", req))
}

// SubmitTransferPermit sends a signed permit; message must carry an integer chainId.
func (c *Client) SubmitTransferPermit(ctx context.Context, message PermitTemplate, signature string) (*Single[bool], error) {
	return doSingle[bool](ctx, c, postRequest("/transfers/permit", submitPermitRequest{
		Message:   message,
		Signature: signature,
	}))
}
