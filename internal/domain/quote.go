package domain

import "time"

// VenueKind classifies where a quote was observed.
type VenueKind string

const (
	KindSpot    VenueKind = "spot"
	KindFutures VenueKind = "futures"
	KindDex     VenueKind = "dex"
)

// Valid reports whether k is one of the known venue kinds.
func (k VenueKind) Valid() bool {
	switch k {
	case KindSpot, KindFutures, KindDex:
		return true
	}
	return false
}

// IsCEX reports whether quotes of this kind come from a centralized order book.
func (k VenueKind) IsCEX() bool {
	return k == KindSpot || k == KindFutures
}

// Quote is a single top-of-book (CEX) or pool (DEX) price observation.
// A zero Bid or Ask means the side is missing. DEX quotes carry a single
// price which is exposed as both Bid and Ask.
//
// Quotes are values; build them with NewSpotQuote, NewFuturesQuote or
// NewDexQuote so kind-specific fields stay consistent.
type Quote struct {
	VenueID      string
	Kind         VenueKind
	RawSymbol    string
	Bid          float64
	Ask          float64
	LiquidityUSD float64
	HasLiquidity bool
	Network      string
	PoolID       string
	ObservedAt   time.Time
}

// NewSpotQuote returns a CEX spot quote without liquidity information.
func NewSpotQuote(venue, symbol string, bid, ask float64, observedAt time.Time) Quote {
	return Quote{
		VenueID:    venue,
		Kind:       KindSpot,
		RawSymbol:  symbol,
		Bid:        bid,
		Ask:        ask,
		ObservedAt: observedAt,
	}
}

// NewFuturesQuote returns a CEX perpetual/futures quote without liquidity information.
func NewFuturesQuote(venue, symbol string, bid, ask float64, observedAt time.Time) Quote {
	return Quote{
		VenueID:    venue,
		Kind:       KindFutures,
		RawSymbol:  symbol,
		Bid:        bid,
		Ask:        ask,
		ObservedAt: observedAt,
	}
}

// NewDexQuote returns a pool quote. price is the USD price of the base token.
func NewDexQuote(venue, network, poolID, symbol string, price, liquidityUSD float64, observedAt time.Time) Quote {
	return Quote{
		VenueID:      venue,
		Kind:         KindDex,
		RawSymbol:    symbol,
		Bid:          price,
		Ask:          price,
		LiquidityUSD: liquidityUSD,
		HasLiquidity: true,
		Network:      network,
		PoolID:       poolID,
		ObservedAt:   observedAt,
	}
}

// WithLiquidity returns a copy of q carrying the given USD liquidity.
func (q Quote) WithLiquidity(usd float64) Quote {
	q.LiquidityUSD = usd
	q.HasLiquidity = true
	return q
}

// WithNetwork returns a copy of q with its network label set.
func (q Quote) WithNetwork(network string) Quote {
	q.Network = network
	return q
}

// Price is the single pool price of a DEX quote.
func (q Quote) Price() float64 {
	return q.Ask
}

// Label identifies the quote's venue in reports. Pools are qualified by chain.
func (q Quote) Label() string {
	if q.Kind == KindDex && q.Network != "" {
		return q.VenueID + " (" + q.Network + ")"
	}
	return q.VenueID
}

// Identity distinguishes raw entities that may collapse into the same
// aggregation slot.
func (q Quote) Identity() string {
	id := q.VenueID + "/" + q.RawSymbol
	if q.Network != "" {
		id += "@" + q.Network
	}
	if q.PoolID != "" {
		id += "#" + q.PoolID
	}
	return id
}

// AssetQuoteSet holds the retained quotes of one canonical symbol, in
// first-seen order.
type AssetQuoteSet struct {
	Symbol  string
	Spot    []Quote
	Futures []Quote
	Dex     []Quote
}

// Len returns the number of retained quotes across all kinds.
func (s *AssetQuoteSet) Len() int {
	return len(s.Spot) + len(s.Futures) + len(s.Dex)
}
