package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadscan/internal/domain"
	"github.com/alanyoungcy/spreadscan/internal/platform/rest"
)

func serve(t *testing.T, body string) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/tickers", r.URL.Path)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	client, err := rest.New(rest.Config{Venue: VenueID, BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return client
}

func TestFetchLinear(t *testing.T) {
	var gotCategory string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCategory = r.URL.Query().Get("category")
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[
			{"symbol":"SOLUSDT","bid1Price":"141.2","ask1Price":"141.3"},
			{"symbol":"SOLPERP","bid1Price":"141.2","ask1Price":"141.3"}
		]}}`))
	}))
	defer srv.Close()
	client, err := rest.New(rest.Config{Venue: VenueID, BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	quotes, err := NewAdapter(domain.KindFutures, client, rest.NewPairFilter("USDT", nil), "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "linear", gotCategory)
	require.Len(t, quotes, 1)
	assert.Equal(t, "SOL", quotes[0].RawSymbol)
	assert.Equal(t, domain.KindFutures, quotes[0].Kind)
	assert.Equal(t, 141.2, quotes[0].Bid)
}

func TestFetchEmptySideIsMissing(t *testing.T) {
	client := serve(t, `{"retCode":0,"result":{"list":[{"symbol":"BTCUSDT","bid1Price":"","ask1Price":"60000"}]}}`)
	quotes, err := NewAdapter(domain.KindSpot, client, rest.NewPairFilter("USDT", nil), "").Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 0.0, quotes[0].Bid)
	assert.Equal(t, 60000.0, quotes[0].Ask)
}

func TestFetchRetCodeErrors(t *testing.T) {
	client := serve(t, `{"retCode":10006,"retMsg":"Too many visits!","result":{}}`)
	_, err := NewAdapter(domain.KindSpot, client, rest.NewPairFilter("USDT", nil), "").Fetch(context.Background())
	var ve *domain.VenueError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ReasonRateLimited, ve.Reason)

	client = serve(t, `{"retCode":10001,"retMsg":"params error","result":{}}`)
	_, err = NewAdapter(domain.KindSpot, client, rest.NewPairFilter("USDT", nil), "").Fetch(context.Background())
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.ReasonBadResponse, ve.Reason)
}
