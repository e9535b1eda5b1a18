package polling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/models"
)

// The sources below are the slices of *variational.Client each helper needs.

type PoolSource interface {
	GetSettlementPools(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.SettlementPool], error)
}

type TransferSource interface {
	GetTransfers(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.Transfer], error)
}

type SentQuoteSource interface {
	GetQuotesSent(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.Quote], error)
}

type ReceivedQuoteSource interface {
	GetQuotesReceived(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.Quote], error)
}

type SentRFQSource interface {
	GetRFQsSent(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.RFQ], error)
}

type ReceivedRFQSource interface {
	GetRFQsReceived(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.RFQ], error)
}

const (
	ObjectSettlementPool = "settlement pool"
	ObjectTransfer       = "transfer"
	ObjectSentQuote      = "sent quote"
	ObjectReceivedQuote  = "received quote"
	ObjectSentRFQ        = "sent rfq"
	ObjectReceivedRFQ    = "received rfq"
)

func byID[T any](fetch func(context.Context, variational.Filter, variational.Cursor) (*variational.Page[T], error), id uuid.UUID) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		page, err := fetch(ctx, variational.Filter{ID: id}, nil)
		if err != nil {
			return nil, err
		}
		return page.Result, nil
	}
}

// WaitForSettlementPool waits until the pool reports one of desired, which
// defaults to open. Open and canceled are final.
func WaitForSettlementPool(ctx context.Context, p *Poller, src PoolSource, poolID uuid.UUID, desired ...models.SettlementPoolStatus) (models.SettlementPool, error) {
	if len(desired) == 0 {
		desired = []models.SettlementPoolStatus{models.SettlementPoolOpen}
	}
	return WaitFor(ctx, p, Target[models.SettlementPool, models.SettlementPoolStatus]{
		ObjectType: ObjectSettlementPool,
		ObjectID:   poolID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetSettlementPools, poolID),
		Status:     models.SettlementPool.Status,
		IsFinal:    models.SettlementPoolStatus.IsFinal,
	})
}

// WaitForTransfer waits until the transfer reports one of desired, which
// defaults to confirmed. Confirmed and failed are final.
func WaitForTransfer(ctx context.Context, p *Poller, src TransferSource, transferID uuid.UUID, desired ...models.TransferStatus) (models.Transfer, error) {
	if len(desired) == 0 {
		desired = []models.TransferStatus{models.TransferConfirmed}
	}
	return WaitFor(ctx, p, Target[models.Transfer, models.TransferStatus]{
		ObjectType: ObjectTransfer,
		ObjectID:   transferID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetTransfers, transferID),
		Status:     func(t models.Transfer) models.TransferStatus { return t.Status },
		IsFinal:    models.TransferStatus.IsFinal,
	})
}

func quoteStatus(q models.Quote) models.ClearingStatus { return q.ClearingStatus }

func requireDesired(objectType string, id uuid.UUID, desired []models.ClearingStatus) error {
	if len(desired) == 0 {
		return fmt.Errorf("polling: %s '%s': a desired clearing status is required", objectType, id)
	}
	return nil
}

// WaitForSentQuote waits on a quote this company made.
func WaitForSentQuote(ctx context.Context, p *Poller, src SentQuoteSource, quoteID uuid.UUID, desired ...models.ClearingStatus) (models.Quote, error) {
	if err := requireDesired(ObjectSentQuote, quoteID, desired); err != nil {
		return models.Quote{}, err
	}
	return WaitFor(ctx, p, Target[models.Quote, models.ClearingStatus]{
		ObjectType: ObjectSentQuote,
		ObjectID:   quoteID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetQuotesSent, quoteID),
		Status:     quoteStatus,
		IsFinal:    models.ClearingStatus.IsFinal,
	})
}

// WaitForReceivedQuote waits on a quote made against one of this company's RFQs.
func WaitForReceivedQuote(ctx context.Context, p *Poller, src ReceivedQuoteSource, quoteID uuid.UUID, desired ...models.ClearingStatus) (models.Quote, error) {
	if err := requireDesired(ObjectReceivedQuote, quoteID, desired); err != nil {
		return models.Quote{}, err
	}
	return WaitFor(ctx, p, Target[models.Quote, models.ClearingStatus]{
		ObjectType: ObjectReceivedQuote,
		ObjectID:   quoteID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetQuotesReceived, quoteID),
		Status:     quoteStatus,
		IsFinal:    models.ClearingStatus.IsFinal,
	})
}

// WaitForSentRFQ waits on an RFQ this company opened. An RFQ without a
// clearing status yet counts as pending.
func WaitForSentRFQ(ctx context.Context, p *Poller, src SentRFQSource, rfqID uuid.UUID, desired ...models.ClearingStatus) (models.RFQ, error) {
	if err := requireDesired(ObjectSentRFQ, rfqID, desired); err != nil {
		return models.RFQ{}, err
	}
	return WaitFor(ctx, p, Target[models.RFQ, models.ClearingStatus]{
		ObjectType: ObjectSentRFQ,
		ObjectID:   rfqID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetRFQsSent, rfqID),
		Status:     models.RFQ.CurrentClearingStatus,
		IsFinal:    models.ClearingStatus.IsFinal,
	})
}

// WaitForReceivedRFQ waits on an RFQ addressed to this company.
func WaitForReceivedRFQ(ctx context.Context, p *Poller, src ReceivedRFQSource, rfqID uuid.UUID, desired ...models.ClearingStatus) (models.RFQ, error) {
	if err := requireDesired(ObjectReceivedRFQ, rfqID, desired); err != nil {
		return models.RFQ{}, err
	}
	return WaitFor(ctx, p, Target[models.RFQ, models.ClearingStatus]{
		ObjectType: ObjectReceivedRFQ,
		ObjectID:   rfqID.String(),
		Desired:    desired,
		Fetch:      byID(src.GetRFQsReceived, rfqID),
		Status:     models.RFQ.CurrentClearingStatus,
		IsFinal:    models.ClearingStatus.IsFinal,
	})
}
