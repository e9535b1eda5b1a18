package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// TradeRow is the stored form of a portfolio trade.
type TradeRow struct {
	ID           string         `db:"id"`
	Company      string         `db:"company"`
	PoolLocation string         `db:"pool_location"`
	Side         string         `db:"side"`
	Role         string         `db:"role"`
	TradeType    string         `db:"trade_type"`
	Underlying   string         `db:"underlying"`
	Instrument   string         `db:"instrument"`
	Price        string         `db:"price"`
	Qty          string         `db:"qty"`
	SourceRFQ    sql.NullString `db:"source_rfq"`
	SourceQuote  sql.NullString `db:"source_quote"`
	CreatedAt    sql.NullTime   `db:"created_at"`
}

// TransferRow is the stored form of a collateral transfer.
type TransferRow struct {
	ID                 string         `db:"id"`
	Company            string         `db:"company"`
	TargetPoolLocation string         `db:"target_pool_location"`
	Asset              string         `db:"asset"`
	Qty                string         `db:"qty"`
	TransferType       string         `db:"transfer_type"`
	Status             string         `db:"status"`
	RFQID              sql.NullString `db:"rfq_id"`
	CreatedAt          time.Time      `db:"created_at"`
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil || *id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

// TradeRowFrom flattens t for storage.
func TradeRowFrom(t models.Trade) (TradeRow, error) {
	instrument, err := json.Marshal(t.Instrument)
	if err != nil {
		return TradeRow{}, fmt.Errorf("ledger: encode instrument of trade %s: %w", t.ID, err)
	}
	row := TradeRow{
		ID:           t.ID.String(),
		Company:      t.Company.String(),
		PoolLocation: t.PoolLocation.String(),
		Side:         string(t.Side),
		Role:         string(t.Role),
		TradeType:    string(t.TradeType),
		Underlying:   t.Instrument.Underlying,
		Instrument:   string(instrument),
		Price:        t.Price.String(),
		Qty:          t.Qty.String(),
		SourceRFQ:    nullUUID(t.SourceRFQ),
		SourceQuote:  nullUUID(t.SourceQuote),
	}
	if t.CreatedAt != nil {
		row.CreatedAt = sql.NullTime{Time: t.CreatedAt.UTC(), Valid: true}
	}
	return row, nil
}

func TransferRowFrom(t models.Transfer) TransferRow {
	return TransferRow{
		ID:                 t.ID.String(),
		Company:            t.Company.String(),
		TargetPoolLocation: t.TargetPoolLocation.String(),
		Asset:              t.Asset,
		Qty:                t.Qty.String(),
		TransferType:       string(t.TransferType),
		Status:             string(t.Status),
		RFQID:              nullUUID(t.RFQID),
		CreatedAt:          t.CreatedAt.UTC(),
	}
}

// Store persists ledger rows. Upserts are keyed by the venue's id.
type Store interface {
	UpsertTrade(ctx context.Context, row TradeRow) error
	UpsertTransfer(ctx context.Context, row TransferRow) error
	RecentTrades(ctx context.Context, pool string, limit int) ([]TradeRow, error)
	TransfersByStatus(ctx context.Context, status string) ([]TransferRow, error)
}

type sqlStore struct {
	conn sqlx.SqlConn
}

// NewSQLStore returns a Store over conn; callers open it with the pgx driver.
func NewSQLStore(conn sqlx.SqlConn) Store {
	return &sqlStore{conn: conn}
}

func (s *sqlStore) UpsertTrade(ctx context.Context, row TradeRow) error {
	const statement = `
INSERT INTO variational_trades (
    id, company, pool_location, side, role, trade_type, underlying,
    instrument, price, qty, source_rfq, source_quote, created_at, synced_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7,
    $8::jsonb, $9::numeric, $10::numeric, $11, $12, $13, NOW()
)
ON CONFLICT (id) DO UPDATE SET
    side = EXCLUDED.side,
    role = EXCLUDED.role,
    trade_type = EXCLUDED.trade_type,
    instrument = EXCLUDED.instrument,
    price = EXCLUDED.price,
    qty = EXCLUDED.qty,
    created_at = COALESCE(EXCLUDED.created_at, variational_trades.created_at),
    synced_at = NOW()
`
	_, err := s.conn.ExecCtx(ctx, statement,
		row.ID, row.Company, row.PoolLocation, row.Side, row.Role, row.TradeType, row.Underlying,
		row.Instrument, row.Price, row.Qty, row.SourceRFQ, row.SourceQuote, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger: upsert trade %s: %w", row.ID, err)
	}
	return nil
}

func (s *sqlStore) UpsertTransfer(ctx context.Context, row TransferRow) error {
	const statement = `
INSERT INTO variational_transfers (
    id, company, target_pool_location, asset, qty, transfer_type, status, rfq_id, created_at, synced_at
) VALUES (
    $1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, NOW()
)
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status,
    qty = EXCLUDED.qty,
    synced_at = NOW()
`
	_, err := s.conn.ExecCtx(ctx, statement,
		row.ID, row.Company, row.TargetPoolLocation, row.Asset, row.Qty,
		row.TransferType, row.Status, row.RFQID, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger: upsert transfer %s: %w", row.ID, err)
	}
	return nil
}

// RecentTrades lists trades newest first. An empty pool matches every pool;
// limit defaults to 200.
func (s *sqlStore) RecentTrades(ctx context.Context, pool string, limit int) ([]TradeRow, error) {
	if limit <= 0 {
		limit = 200
	}
	const query = `
SELECT
    id::text, company::text, pool_location::text, side, role, trade_type, underlying,
    instrument::text, price::text, qty::text, source_rfq::text, source_quote::text, created_at
FROM variational_trades
WHERE ($1 = '' OR pool_location::text = $1)
ORDER BY created_at DESC NULLS LAST, id
LIMIT $2
`
	var rows []TradeRow
	if err := s.conn.QueryRowsCtx(ctx, &rows, query, pool, limit); err != nil {
		return nil, fmt.Errorf("ledger: recent trades: %w", err)
	}
	return rows, nil
}

func (s *sqlStore) TransfersByStatus(ctx context.Context, status string) ([]TransferRow, error) {
	const query = `
SELECT
    id::text, company::text, target_pool_location::text, asset, qty::text,
    transfer_type, status, rfq_id::text, created_at
FROM variational_transfers
WHERE status = $1
ORDER BY created_at DESC
`
	var rows []TransferRow
	if err := s.conn.QueryRowsCtx(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("ledger: transfers by status %s: %w", status, err)
	}
	return rows, nil
}
