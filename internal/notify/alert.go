package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// EventSpreadDetected is emitted when a scan finds spreads above the alert
// threshold.
const EventSpreadDetected = "spread_detected"

// AlertConfig tunes SpreadAlerter.
type AlertConfig struct {
	MinSpreadPct float64
	// MaxPerAlert caps the opportunities listed in one message.
	MaxPerAlert int
	// Cooldown suppresses repeats of the same buy/sell route.
	Cooldown time.Duration
}

// SpreadAlerter turns snapshots into spread_detected notifications. It
// implements domain.ReportSink.
type SpreadAlerter struct {
	notifier *Notifier
	cfg      AlertConfig
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewSpreadAlerter creates a SpreadAlerter.
func NewSpreadAlerter(n *Notifier, cfg AlertConfig) *SpreadAlerter {
	if cfg.MaxPerAlert <= 0 {
		cfg.MaxPerAlert = 10
	}
	return &SpreadAlerter{notifier: n, cfg: cfg, now: time.Now, sent: make(map[string]time.Time)}
}

func (a *SpreadAlerter) Name() string { return "notify" }

// Store sends one alert listing the widest fresh spreads in snap.
func (a *SpreadAlerter) Store(ctx context.Context, snap domain.Snapshot) error {
	if !a.notifier.Enabled(EventSpreadDetected) {
		return nil
	}
	picked := a.pick(snap.Report)
	if len(picked) == 0 {
		return nil
	}
	title := fmt.Sprintf("%d spread(s) >= %.2f%%", len(picked), a.cfg.MinSpreadPct)
	if err := a.notifier.Notify(ctx, EventSpreadDetected, title, FormatAlert(picked)); err != nil {
		return err
	}
	a.markSent(picked)
	return nil
}

// markSent starts the cooldown of every delivered route.
func (a *SpreadAlerter) markSent(opps []domain.SpreadOpportunity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for _, o := range opps {
		a.sent[routeKey(o)] = now
	}
}

func (a *SpreadAlerter) pick(r domain.Report) []domain.SpreadOpportunity {
	var candidates []domain.SpreadOpportunity
	for _, cat := range domain.Categories {
		for _, o := range r.Section(cat) {
			if o.SpreadPct >= a.cfg.MinSpreadPct {
				candidates = append(candidates, o)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].SpreadPct > candidates[j].SpreadPct
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for k, at := range a.sent {
		if now.Sub(at) >= a.cfg.Cooldown {
			delete(a.sent, k)
		}
	}

	var out []domain.SpreadOpportunity
	seen := make(map[string]bool)
	for _, o := range candidates {
		if len(out) == a.cfg.MaxPerAlert {
			break
		}
		key := routeKey(o)
		if _, recent := a.sent[key]; recent || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}

func routeKey(o domain.SpreadOpportunity) string {
	return strings.Join([]string{string(o.Category), o.Symbol, label(o.BuyLabel, o.BuyVenue), label(o.SellLabel, o.SellVenue)}, "|")
}

func label(l, venue string) string {
	if l != "" {
		return l
	}
	return venue
}

// FormatAlert renders one line per opportunity.
func FormatAlert(opps []domain.SpreadOpportunity) string {
	var b strings.Builder
	for i, o := range opps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s +%.2f%%: buy %s @ %s, sell %s @ %s",
			o.Category, o.Symbol, domain.RoundSpread(o.SpreadPct),
			label(o.BuyLabel, o.BuyVenue), formatPrice(o.BuyPrice),
			label(o.SellLabel, o.SellVenue), formatPrice(o.SellPrice),
		)
		if o.Category == domain.CategoryDex && o.HasLiquidity {
			fmt.Fprintf(&b, " (liq %s)", domain.FormatUSD(o.LiquidityUSD))
		}
	}
	return b.String()
}

func formatPrice(p float64) string {
	switch {
	case p >= 100:
		return fmt.Sprintf("%.2f", p)
	case p >= 1:
		return fmt.Sprintf("%.4f", p)
	default:
		return fmt.Sprintf("%.8g", p)
	}
}

var _ domain.ReportSink = (*SpreadAlerter)(nil)
