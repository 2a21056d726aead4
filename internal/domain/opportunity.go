package domain

// Category is the report section an opportunity belongs to.
type Category string

const (
	CategorySpot    Category = "spot"
	CategoryFutures Category = "futures"
	CategoryDex     Category = "dex"
)

// Categories lists report sections in output order.
var Categories = []Category{CategorySpot, CategoryFutures, CategoryDex}

// ParseCategory maps a string to a Category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategorySpot, CategoryFutures, CategoryDex:
		return Category(s), true
	}
	return "", false
}

// SpreadOpportunity is a directional price gap: buy at BuyVenue's ask, sell
// at SellVenue's bid. SpreadPct = (SellPrice - BuyPrice) / BuyPrice * 100.
type SpreadOpportunity struct {
	Symbol       string
	Category     Category
	BuyVenue     string
	SellVenue    string
	BuyLabel     string
	SellLabel    string
	BuyPrice     float64
	SellPrice    float64
	SpreadPct    float64
	LiquidityUSD float64
	HasLiquidity bool
	BuyNetwork   string
	SellNetwork  string
}

// Networks returns the distinct non-empty networks of both legs.
func (o SpreadOpportunity) Networks() []string {
	var out []string
	for _, n := range []string{o.BuyNetwork, o.SellNetwork} {
		if n == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}
