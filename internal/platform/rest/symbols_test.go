package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairFilterBase(t *testing.T) {
	f := NewPairFilter("usdt", []string{"btc", "ETH"})
	tests := []struct {
		pair, sep, suffix string
		want              string
		ok                bool
	}{
		{"BTCUSDT", "", "", "BTC", true},
		{"ETH-USDT", "-", "", "ETH", true},
		{"ETH-USDT-SWAP", "-", "-SWAP", "ETH", true},
		{"ETH-USDT", "-", "-SWAP", "", false},
		{"SOLUSDT", "", "", "", false},
		{"BTCUSDC", "", "", "", false},
		{"USDT", "", "", "", false},
	}
	for _, tt := range tests {
		got, ok := f.Base(tt.pair, tt.sep, tt.suffix)
		assert.Equal(t, tt.ok, ok, tt.pair)
		assert.Equal(t, tt.want, got, tt.pair)
	}
}

func TestPairFilterAllBases(t *testing.T) {
	base, ok := NewPairFilter("USDT", nil).Base("PEPEUSDT", "", "")
	assert.True(t, ok)
	assert.Equal(t, "PEPE", base)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 1.25, ParsePrice("1.25"))
	assert.Equal(t, 0.0, ParsePrice(""))
	assert.Equal(t, 0.0, ParsePrice("n/a"))
}
