package arbitrage

import (
	"sort"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// SpreadPct is the percentage gain of selling at sell after buying at buy.
// It is signed; callers filter out non-positive spreads.
func SpreadPct(buy, sell float64) float64 {
	return (sell - buy) / buy * 100
}

// ComputeSpreads evaluates every directional pair within each asset:
// spot against spot, futures against futures, and DEX pools against spot
// (buy on the pool, sell on the exchange). Symbols are visited in sorted order
// so output is deterministic for a given aggregation.
func ComputeSpreads(sets map[string]*domain.AssetQuoteSet) []domain.SpreadOpportunity {
	symbols := make([]string, 0, len(sets))
	for s := range sets {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var out []domain.SpreadOpportunity
	for _, symbol := range symbols {
		set := sets[symbol]
		spot := tradable(set.Spot)
		out = pairSameKind(out, symbol, domain.CategorySpot, spot)
		out = pairSameKind(out, symbol, domain.CategoryFutures, tradable(set.Futures))
		out = pairDexSpot(out, symbol, set.Dex, spot)
	}
	return out
}

// tradable drops quotes missing either side of the book.
func tradable(quotes []domain.Quote) []domain.Quote {
	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Bid > 0 && q.Ask > 0 {
			out = append(out, q)
		}
	}
	return out
}

func pairSameKind(out []domain.SpreadOpportunity, symbol string, cat domain.Category, quotes []domain.Quote) []domain.SpreadOpportunity {
	for i, buy := range quotes {
		for j, sell := range quotes {
			if i == j || buy.VenueID == sell.VenueID {
				continue
			}
			opp := newOpportunity(symbol, cat, buy, sell, buy.Ask, sell.Bid)
			opp.LiquidityUSD, opp.HasLiquidity = lesserLiquidity(buy, sell)
			out = append(out, opp)
		}
	}
	return out
}

func pairDexSpot(out []domain.SpreadOpportunity, symbol string, pools, spot []domain.Quote) []domain.SpreadOpportunity {
	for _, pool := range pools {
		if pool.Price() <= 0 {
			continue
		}
		for _, s := range spot {
			if pool.VenueID == s.VenueID {
				continue
			}
			opp := newOpportunity(symbol, domain.CategoryDex, pool, s, pool.Price(), s.Bid)
			opp.LiquidityUSD, opp.HasLiquidity = pool.LiquidityUSD, pool.HasLiquidity
			out = append(out, opp)
		}
	}
	return out
}

func newOpportunity(symbol string, cat domain.Category, buy, sell domain.Quote, buyPrice, sellPrice float64) domain.SpreadOpportunity {
	return domain.SpreadOpportunity{
		Symbol:      symbol,
		Category:    cat,
		BuyVenue:    buy.VenueID,
		SellVenue:   sell.VenueID,
		BuyLabel:    buy.Label(),
		SellLabel:   sell.Label(),
		BuyPrice:    buyPrice,
		SellPrice:   sellPrice,
		SpreadPct:   SpreadPct(buyPrice, sellPrice),
		BuyNetwork:  buy.Network,
		SellNetwork: sell.Network,
	}
}

// lesserLiquidity returns the smaller known liquidity of two legs.
func lesserLiquidity(a, b domain.Quote) (float64, bool) {
	switch {
	case a.HasLiquidity && b.HasLiquidity:
		if a.LiquidityUSD < b.LiquidityUSD {
			return a.LiquidityUSD, true
		}
		return b.LiquidityUSD, true
	case a.HasLiquidity:
		return a.LiquidityUSD, true
	case b.HasLiquidity:
		return b.LiquidityUSD, true
	}
	return 0, false
}
