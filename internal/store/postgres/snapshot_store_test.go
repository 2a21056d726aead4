package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

func TestSnapshotRowsRankPerCategory(t *testing.T) {
	r := domain.Report{
		Spot: []domain.SpreadOpportunity{
			{Symbol: "BTC", Category: domain.CategorySpot, SpreadPct: 2},
			{Symbol: "ETH", Category: domain.CategorySpot, SpreadPct: 1},
		},
		Dex: []domain.SpreadOpportunity{
			{Symbol: "SOL", Category: domain.CategoryDex, SpreadPct: 3, LiquidityUSD: 12_000, HasLiquidity: true},
		},
	}
	rows := snapshotRows(r)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row, len(snapshotColumns))
	}

	assert.Equal(t, "spot", rows[0][0])
	assert.Equal(t, 1, rows[0][1])
	assert.Equal(t, 2, rows[1][1])
	assert.Nil(t, rows[0][10])

	assert.Equal(t, "dex", rows[2][0])
	assert.Equal(t, 1, rows[2][1])
	require.NotNil(t, rows[2][10])
	assert.Equal(t, 12_000.0, *rows[2][10].(*float64))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/spreads?sslmode=disable",
		DSN(ClientConfig{Host: "db", User: "u", Password: "p", Database: "spreads"}))
	assert.Equal(t, "postgres://custom", DSN(ClientConfig{DSN: "postgres://custom", Host: "ignored"}))
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	assert.Contains(t, names, "001_spread_snapshot.sql")
}
