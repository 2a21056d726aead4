package rest

import (
	"strconv"
	"strings"
)

// PairFilter selects exchange pairs quoted in one asset and, optionally,
// restricted to a fixed set of base assets.
type PairFilter struct {
	Quote string
	bases map[string]bool
}

// NewPairFilter builds a filter. An empty bases list admits every base asset.
func NewPairFilter(quote string, bases []string) PairFilter {
	f := PairFilter{Quote: strings.ToUpper(quote)}
	if len(bases) > 0 {
		f.bases = make(map[string]bool, len(bases))
		for _, b := range bases {
			f.bases[strings.ToUpper(strings.TrimSpace(b))] = true
		}
	}
	return f
}

// Base extracts the base asset from an exchange pair such as "BTCUSDT",
// "BTC-USDT" or "BTC-USDT-SWAP". suffix is stripped first when present.
func (f PairFilter) Base(pair, sep, suffix string) (string, bool) {
	p := strings.ToUpper(pair)
	if suffix != "" {
		var ok bool
		if p, ok = strings.CutSuffix(p, strings.ToUpper(suffix)); !ok {
			return "", false
		}
	}
	base, ok := strings.CutSuffix(p, sep+f.Quote)
	if !ok || base == "" {
		return "", false
	}
	if f.bases != nil && !f.bases[base] {
		return "", false
	}
	return base, true
}

// ParsePrice parses a decimal price string; unparsable or empty input yields
// 0, which marks the side as missing.
func ParsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
