// Package ledger mirrors portfolio trades and collateral transfers into
// Postgres.
package ledger

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var schema = []string{
	`
CREATE TABLE IF NOT EXISTS variational_trades (
    id               UUID PRIMARY KEY,
    company          UUID NOT NULL,
    pool_location    UUID NOT NULL,
    side             TEXT NOT NULL,
    role             TEXT NOT NULL,
    trade_type       TEXT NOT NULL,
    underlying       TEXT NOT NULL,
    instrument       JSONB NOT NULL,
    price            NUMERIC NOT NULL,
    qty              NUMERIC NOT NULL,
    source_rfq       UUID,
    source_quote     UUID,
    created_at       TIMESTAMPTZ,
    synced_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS variational_trades_pool_idx ON variational_trades (pool_location, created_at DESC)`,
	`
CREATE TABLE IF NOT EXISTS variational_transfers (
    id                   UUID PRIMARY KEY,
    company              UUID NOT NULL,
    target_pool_location UUID NOT NULL,
    asset                TEXT NOT NULL,
    qty                  NUMERIC NOT NULL,
    transfer_type        TEXT NOT NULL,
    status               TEXT NOT NULL,
    rfq_id               UUID,
    created_at           TIMESTAMPTZ NOT NULL,
    synced_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS variational_transfers_status_idx ON variational_transfers (status)`,
}

// EnsureSchema creates the ledger tables when missing. It is safe to run on
// every start.
func EnsureSchema(ctx context.Context, conn sqlx.SqlConn) error {
	for _, stmt := range schema {
		if _, err := conn.ExecCtx(ctx, stmt); err != nil {
			return fmt.Errorf("ledger: ensure schema: %w", err)
		}
	}
	return nil
}
