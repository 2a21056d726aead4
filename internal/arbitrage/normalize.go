package arbitrage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// minUnwrappedLen is the shortest symbol left after stripping a wrapper
// prefix. WIF stays WIF, WETH becomes ETH.
const minUnwrappedLen = 3

// DefaultWrappedPrefixes are the wrapper markers stripped from DEX symbols.
var DefaultWrappedPrefixes = []string{"W"}

// Normalizer maps raw venue symbols to canonical asset symbols. It only looks
// at the symbol text; chain and contract address are never consulted.
type Normalizer struct {
	prefixes []string
}

// NewNormalizer returns a Normalizer stripping the given one-letter wrapper
// prefixes from DEX symbols. With no prefixes DefaultWrappedPrefixes is used.
func NewNormalizer(prefixes ...string) *Normalizer {
	if len(prefixes) == 0 {
		prefixes = DefaultWrappedPrefixes
	}
	n := &Normalizer{prefixes: make([]string, 0, len(prefixes))}
	for _, p := range prefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			n.prefixes = append(n.prefixes, p)
		}
	}
	return n
}

// Normalize uppercases raw and, for DEX symbols, strips a single leading
// wrapper marker when at least minUnwrappedLen characters remain.
func (n *Normalizer) Normalize(raw string, kind domain.VenueKind) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("normalize: empty symbol: %w", domain.ErrMalformedQuote)
	}
	if kind != domain.KindDex {
		return s, nil
	}
	for _, p := range n.prefixes {
		if strings.HasPrefix(s, p) && utf8.RuneCountInString(s[len(p):]) >= minUnwrappedLen {
			return s[len(p):], nil
		}
	}
	return s, nil
}
