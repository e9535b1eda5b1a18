package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/variational-research/variational-go/pkg/variational"
	"github.com/variational-research/variational-go/pkg/variational/models"
)

// Source is the slice of *variational.Client the syncer reads from.
type Source interface {
	GetPortfolioTrades(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.Trade], error)
	GetTransfers(ctx context.Context, filter variational.Filter, page variational.Cursor) (*variational.Page[models.Transfer], error)
}

// Stats counts rows written by one Sync.
type Stats struct {
	Trades    int
	Transfers int
}

// Syncer copies every trade and transfer visible to the API key into a Store.
type Syncer struct {
	source Source
	store  Store
	pool   uuid.UUID
}

type SyncerOption func(*Syncer)

// WithPool restricts syncing to one settlement pool.
func WithPool(pool uuid.UUID) SyncerOption {
	return func(s *Syncer) {
		s.pool = pool
	}
}

func NewSyncer(source Source, store Store, opts ...SyncerOption) *Syncer {
	s := &Syncer{source: source, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync walks both listings to the end. Rows already written stay written when
// a later page fails.
func (s *Syncer) Sync(ctx context.Context) (Stats, error) {
	var stats Stats
	filter := variational.Filter{Pool: s.pool}

	trades := func(ctx context.Context, cursor variational.Cursor) (*variational.Page[models.Trade], error) {
		return s.source.GetPortfolioTrades(ctx, filter, cursor)
	}
	err := variational.Paginate(ctx, nil, trades, func(t models.Trade) error {
		row, err := TradeRowFrom(t)
		if err != nil {
			return err
		}
		if err := s.store.UpsertTrade(ctx, row); err != nil {
			return err
		}
		stats.Trades++
		return nil
	})
	if err != nil {
		return stats, err
	}

	transfers := func(ctx context.Context, cursor variational.Cursor) (*variational.Page[models.Transfer], error) {
		return s.source.GetTransfers(ctx, filter, cursor)
	}
	err = variational.Paginate(ctx, nil, transfers, func(t models.Transfer) error {
		if err := s.store.UpsertTransfer(ctx, TransferRowFrom(t)); err != nil {
			return err
		}
		stats.Transfers++
		return nil
	})
	return stats, err
}

// Run syncs immediately and then every interval until ctx is done. Failed
// passes are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("ledger: sync interval must be positive")
	}
	logger := logx.WithContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		start := time.Now()
		stats, err := s.Sync(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Errorf("ledger: sync failed after %d trades, %d transfers: %v", stats.Trades, stats.Transfers, err)
		default:
			logger.Infof("ledger: synced %d trades, %d transfers in %s", stats.Trades, stats.Transfers, time.Since(start).Round(time.Millisecond))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
