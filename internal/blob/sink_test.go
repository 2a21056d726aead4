package blob

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/blob/localfs"
	"github.com/alanyoungcy/spreadscan/internal/domain"
)

func TestReportSinkWritesIndentedReport(t *testing.T) {
	dir := t.TempDir()
	sink := NewReportSink("file", localfs.NewWriter(dir), "")
	snap := domain.Snapshot{RunID: "r1", Report: domain.Report{
		Spot: []domain.SpreadOpportunity{{
			Symbol: "BTC", Category: domain.CategorySpot, BuyVenue: "binance", SellVenue: "okx",
			BuyPrice: 100, SellPrice: 101.234, SpreadPct: 1.234,
		}},
	}}
	require.NoError(t, sink.Store(context.Background(), snap))

	raw, err := os.ReadFile(filepath.Join(dir, DefaultReportPath))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n    \"spot\": ["))

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded["spot"], 1)
	assert.Equal(t, 1.23, decoded["spot"][0]["spread"])
	assert.Equal(t, "binance", decoded["spot"][0]["buyAt"])
	assert.Empty(t, decoded["futures"])
	assert.NotContains(t, string(raw), "runId")
}
