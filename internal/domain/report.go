package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Report is the ranked output of one scan. Each section is sorted by
// SpreadPct descending.
type Report struct {
	Spot    []SpreadOpportunity
	Futures []SpreadOpportunity
	Dex     []SpreadOpportunity
}

// Section returns the opportunities of category c.
func (r Report) Section(c Category) []SpreadOpportunity {
	switch c {
	case CategorySpot:
		return r.Spot
	case CategoryFutures:
		return r.Futures
	case CategoryDex:
		return r.Dex
	}
	return nil
}

// Len returns the total number of opportunities in the report.
func (r Report) Len() int {
	return len(r.Spot) + len(r.Futures) + len(r.Dex)
}

// ReportEntry is the wire form of one opportunity.
type ReportEntry struct {
	Symbol    string  `json:"symbol"`
	Spread    float64 `json:"spread"`
	BuyAt     string  `json:"buyAt"`
	BuyPrice  float64 `json:"buyPrice"`
	SellAt    string  `json:"sellAt"`
	SellPrice float64 `json:"sellPrice"`
	Networks  string  `json:"networks,omitempty"`
	Liquidity string  `json:"liquidity,omitempty"`
}

type reportJSON struct {
	Spot    []ReportEntry `json:"spot"`
	Futures []ReportEntry `json:"futures"`
	Dex     []ReportEntry `json:"dex"`
}

// MarshalJSON renders the report as {"spot":[...],"futures":[...],"dex":[...]}.
// Empty sections encode as [] rather than null.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		Spot:    entries(r.Spot),
		Futures: entries(r.Futures),
		Dex:     entries(r.Dex),
	})
}

// Entries returns the wire form of a section.
func Entries(opps []SpreadOpportunity) []ReportEntry {
	return entries(opps)
}

func entries(opps []SpreadOpportunity) []ReportEntry {
	out := make([]ReportEntry, 0, len(opps))
	for _, o := range opps {
		e := ReportEntry{
			Symbol:    o.Symbol,
			Spread:    RoundSpread(o.SpreadPct),
			BuyAt:     o.BuyLabel,
			BuyPrice:  o.BuyPrice,
			SellAt:    o.SellLabel,
			SellPrice: o.SellPrice,
			Networks:  strings.Join(o.Networks(), ", "),
		}
		if e.BuyAt == "" {
			e.BuyAt = o.BuyVenue
		}
		if e.SellAt == "" {
			e.SellAt = o.SellVenue
		}
		if o.Category == CategoryDex && o.HasLiquidity {
			e.Liquidity = FormatUSD(o.LiquidityUSD)
		}
		out = append(out, e)
	}
	return out
}

// RoundSpread rounds a percentage to two decimals, half away from zero.
func RoundSpread(pct float64) float64 {
	return decimal.NewFromFloat(pct).Round(2).InexactFloat64()
}

// FormatUSD renders a whole-dollar amount such as "$12,345".
func FormatUSD(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// ParseUSD reverses FormatUSD.
func ParseUSD(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Snapshot is a report stamped with the scan that produced it.
type Snapshot struct {
	RunID       string
	GeneratedAt time.Time
	Report      Report
}

type snapshotJSON struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Report      Report    `json:"report"`
}

// MarshalJSON wraps the report with its run metadata.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		RunID:       s.RunID,
		GeneratedAt: s.GeneratedAt.UTC(),
		Report:      s.Report,
	})
}
