package arbitrage

import (
	"log/slog"
	"math"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// Aggregation is the result of grouping one scan's quotes by canonical symbol.
type Aggregation struct {
	Sets       map[string]*domain.AssetQuoteSet
	Rejected   []*domain.MalformedQuoteError
	Collisions int
	Retained   int
}

// Aggregator deduplicates quotes into one AssetQuoteSet per canonical symbol.
//
// CEX quotes are keyed by (symbol, kind, venue). DEX quotes are keyed by
// symbol alone, or by (symbol, network) in chain-aware mode. Within a key the
// higher-liquidity quote wins when both sides report liquidity (ties keep the
// first seen); otherwise the most recently seen quote wins.
type Aggregator struct {
	norm       *Normalizer
	chainAware bool
	logger     *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(norm *Normalizer, chainAware bool, logger *slog.Logger) *Aggregator {
	if norm == nil {
		norm = NewNormalizer()
	}
	return &Aggregator{
		norm:       norm,
		chainAware: chainAware,
		logger:     logger.With(slog.String("component", "aggregator")),
	}
}

type slotKey struct {
	symbol  string
	kind    domain.VenueKind
	venue   string
	network string
}

type slotRef struct {
	kind  domain.VenueKind
	index int
}

// Aggregate groups quotes. Malformed quotes are dropped and reported in
// Aggregation.Rejected; the input slice is not modified.
func (a *Aggregator) Aggregate(quotes []domain.Quote) Aggregation {
	agg := Aggregation{Sets: make(map[string]*domain.AssetQuoteSet)}
	slots := make(map[slotKey]slotRef)

	for _, q := range quotes {
		if reason := validateQuote(q); reason != "" {
			agg.Rejected = append(agg.Rejected, &domain.MalformedQuoteError{
				Venue: q.VenueID, RawSymbol: q.RawSymbol, Reason: reason,
			})
			continue
		}
		symbol, err := a.norm.Normalize(q.RawSymbol, q.Kind)
		if err != nil {
			agg.Rejected = append(agg.Rejected, &domain.MalformedQuoteError{
				Venue: q.VenueID, RawSymbol: q.RawSymbol, Reason: "empty symbol",
			})
			continue
		}

		set, ok := agg.Sets[symbol]
		if !ok {
			set = &domain.AssetQuoteSet{Symbol: symbol}
			agg.Sets[symbol] = set
		}

		key := a.keyFor(symbol, q)
		ref, occupied := slots[key]
		if !occupied {
			slots[key] = slotRef{kind: q.Kind, index: appendQuote(set, q)}
			agg.Retained++
			continue
		}

		list := quotesOf(set, ref.kind)
		incumbent := list[ref.index]
		if incumbent.Identity() != q.Identity() {
			agg.Collisions++
			a.logger.Debug("normalization collision",
				slog.String("symbol", symbol),
				slog.String("kind", string(q.Kind)),
				slog.String("kept", incumbent.Identity()),
				slog.String("candidate", q.Identity()),
			)
		}
		if prefer(incumbent, q) {
			list[ref.index] = q
		}
	}

	for _, r := range agg.Rejected {
		a.logger.Debug("malformed quote dropped", slog.String("error", r.Error()))
	}
	return agg
}

func (a *Aggregator) keyFor(symbol string, q domain.Quote) slotKey {
	k := slotKey{symbol: symbol, kind: q.Kind}
	if q.Kind.IsCEX() {
		k.venue = q.VenueID
	} else if a.chainAware {
		k.network = q.Network
	}
	return k
}

// prefer reports whether candidate should replace incumbent in a slot.
func prefer(incumbent, candidate domain.Quote) bool {
	if incumbent.HasLiquidity && candidate.HasLiquidity {
		return candidate.LiquidityUSD > incumbent.LiquidityUSD
	}
	return true
}

func validateQuote(q domain.Quote) string {
	if !q.Kind.Valid() {
		return "unknown venue kind"
	}
	if q.VenueID == "" {
		return "missing venue"
	}
	if !finite(q.Bid) || !finite(q.Ask) || !finite(q.LiquidityUSD) {
		return "non-finite value"
	}
	if q.Bid < 0 || q.Ask < 0 {
		return "negative price"
	}
	if q.Bid == 0 && q.Ask == 0 {
		return "missing bid and ask"
	}
	if q.HasLiquidity && q.LiquidityUSD < 0 {
		return "negative liquidity"
	}
	if q.Kind == domain.KindDex {
		if q.Price() <= 0 {
			return "non-positive pool price"
		}
		if !q.HasLiquidity || q.LiquidityUSD <= 0 {
			return "missing pool liquidity"
		}
	}
	return ""
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func appendQuote(set *domain.AssetQuoteSet, q domain.Quote) int {
	switch q.Kind {
	case domain.KindSpot:
		set.Spot = append(set.Spot, q)
		return len(set.Spot) - 1
	case domain.KindFutures:
		set.Futures = append(set.Futures, q)
		return len(set.Futures) - 1
	default:
		set.Dex = append(set.Dex, q)
		return len(set.Dex) - 1
	}
}

func quotesOf(set *domain.AssetQuoteSet, kind domain.VenueKind) []domain.Quote {
	switch kind {
	case domain.KindSpot:
		return set.Spot
	case domain.KindFutures:
		return set.Futures
	default:
		return set.Dex
	}
}
