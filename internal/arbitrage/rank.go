package arbitrage

import (
	"sort"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// Filter bounds which opportunities make it into a Report.
type Filter struct {
	MinSpreadPct    float64
	MaxSpreadPct    float64
	MinLiquidityUSD float64
	// TopN caps each section when positive.
	TopN int
}

// Accept reports whether o passes the spread bounds (both exclusive) and,
// when o carries liquidity, the liquidity floor.
func (f Filter) Accept(o domain.SpreadOpportunity) bool {
	if !(o.SpreadPct > f.MinSpreadPct && o.SpreadPct < f.MaxSpreadPct) {
		return false
	}
	if o.HasLiquidity && o.LiquidityUSD < f.MinLiquidityUSD {
		return false
	}
	return true
}

// Rank filters opportunities, partitions them by category and sorts each
// section by spread descending. Equal spreads keep their input order.
func Rank(opps []domain.SpreadOpportunity, f Filter) domain.Report {
	var r domain.Report
	for _, o := range opps {
		if !f.Accept(o) {
			continue
		}
		switch o.Category {
		case domain.CategorySpot:
			r.Spot = append(r.Spot, o)
		case domain.CategoryFutures:
			r.Futures = append(r.Futures, o)
		case domain.CategoryDex:
			r.Dex = append(r.Dex, o)
		}
	}
	r.Spot = sortSection(r.Spot, f.TopN)
	r.Futures = sortSection(r.Futures, f.TopN)
	r.Dex = sortSection(r.Dex, f.TopN)
	return r
}

func sortSection(opps []domain.SpreadOpportunity, topN int) []domain.SpreadOpportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].SpreadPct > opps[j].SpreadPct
	})
	if topN > 0 && len(opps) > topN {
		opps = opps[:topN]
	}
	return opps
}
