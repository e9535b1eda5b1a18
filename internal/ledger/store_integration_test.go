package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

func requirePostgres(t *testing.T) sqlx.SqlConn {
	t.Helper()
	dsn := os.Getenv("VARIATIONAL_TEST_DSN")
	if dsn == "" {
		t.Skip("Postgres not configured (VARIATIONAL_TEST_DSN unset)")
	}
	conn := sqlx.NewSqlConn("pgx", dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, EnsureSchema(ctx, conn))
	return conn
}

func TestSQLStoreRoundTrip(t *testing.T) {
	conn := requirePostgres(t)
	store := NewSQLStore(conn)
	ctx := context.Background()
	pool := uuid.New()

	tr := trade(pool, "3120.55")
	row, err := TradeRowFrom(tr)
	require.NoError(t, err)
	require.NoError(t, store.UpsertTrade(ctx, row))
	row.Price = "3121"
	require.NoError(t, store.UpsertTrade(ctx, row))

	recent, err := store.RecentTrades(ctx, pool.String(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, tr.ID.String(), recent[0].ID)
	assert.Equal(t, "3121", recent[0].Price)
	assert.Equal(t, "ETH", recent[0].Underlying)

	xfer := transfer(pool, models.TransferPending)
	require.NoError(t, store.UpsertTransfer(ctx, TransferRowFrom(xfer)))
	xfer.Status = models.TransferConfirmed
	require.NoError(t, store.UpsertTransfer(ctx, TransferRowFrom(xfer)))

	confirmed, err := store.TransfersByStatus(ctx, string(models.TransferConfirmed))
	require.NoError(t, err)
	found := false
	for _, r := range confirmed {
		if r.ID == xfer.ID.String() {
			found = true
			assert.Equal(t, "1000", r.Qty)
		}
	}
	assert.True(t, found)

	_, err = conn.ExecCtx(ctx, `DELETE FROM variational_trades WHERE pool_location = $1`, pool.String())
	require.NoError(t, err)
	_, err = conn.ExecCtx(ctx, `DELETE FROM variational_transfers WHERE target_pool_location = $1`, pool.String())
	require.NoError(t, err)
}
