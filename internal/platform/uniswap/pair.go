// Package uniswap quotes Uniswap V2 style pools directly from chain state.
// Each configured pool pairs a base token with a USD stablecoin; the price
// is the reserve ratio and liquidity is twice the stablecoin reserve.
package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

const VenueID = "uniswap-v2"

const pairABI = `[{"constant":true,"inputs":[],"name":"getReserves","outputs":[
 {"internalType":"uint112","name":"_reserve0","type":"uint112"},
 {"internalType":"uint112","name":"_reserve1","type":"uint112"},
 {"internalType":"uint32","name":"_blockTimestampLast","type":"uint32"}],
 "payable":false,"stateMutability":"view","type":"function"}]`

var parsedPairABI = mustParseABI(pairABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("uniswap: parse pair abi: %v", err))
	}
	return parsed
}

// Pool describes one base/stablecoin pair contract.
type Pool struct {
	Address       common.Address
	Network       string
	BaseSymbol    string
	BaseDecimals  int
	QuoteDecimals int
	BaseIsToken0  bool
}

// Reserves are the raw pool balances.
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// Adapter reads getReserves() of every configured pool.
type Adapter struct {
	caller ethereum.ContractCaller
	pools  []Pool
	now    func() time.Time
}

// NewAdapter creates the adapter. caller is usually an *ethclient.Client.
func NewAdapter(caller ethereum.ContractCaller, pools []Pool) *Adapter {
	return &Adapter{caller: caller, pools: pools, now: time.Now}
}

func (a *Adapter) Name() string           { return VenueID }
func (a *Adapter) Kind() domain.VenueKind { return domain.KindDex }

// Fetch quotes every pool. Pools that fail to read are skipped; the venue
// is unavailable when none can be read.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.Quote, error) {
	if len(a.pools) == 0 {
		return nil, nil
	}
	var (
		quotes []domain.Quote
		errs   []error
	)
	for _, p := range a.pools {
		res, err := a.reserves(ctx, p.Address)
		if err != nil {
			errs = append(errs, fmt.Errorf("pool %s: %w", p.Address.Hex(), err))
			continue
		}
		price, liquidity, ok := Quote(p, res)
		if !ok {
			continue
		}
		quotes = append(quotes, domain.NewDexQuote(VenueID, p.Network, p.Address.Hex(), p.BaseSymbol, price, liquidity, a.now()))
	}
	if len(errs) == len(a.pools) {
		return nil, domain.NewVenueError(VenueID, domain.ReasonTransport, errors.Join(errs...))
	}
	return quotes, nil
}

func (a *Adapter) reserves(ctx context.Context, pair common.Address) (Reserves, error) {
	data, err := parsedPairABI.Pack("getReserves")
	if err != nil {
		return Reserves{}, fmt.Errorf("pack getReserves: %w", err)
	}
	out, err := a.caller.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: data}, nil)
	if err != nil {
		return Reserves{}, fmt.Errorf("call getReserves: %w", err)
	}
	vals, err := parsedPairABI.Unpack("getReserves", out)
	if err != nil {
		return Reserves{}, fmt.Errorf("unpack getReserves: %w", err)
	}
	if len(vals) < 2 {
		return Reserves{}, fmt.Errorf("unpack getReserves: %d values", len(vals))
	}
	r0, ok0 := vals[0].(*big.Int)
	r1, ok1 := vals[1].(*big.Int)
	if !ok0 || !ok1 {
		return Reserves{}, fmt.Errorf("unpack getReserves: unexpected types %T, %T", vals[0], vals[1])
	}
	return Reserves{Reserve0: r0, Reserve1: r1}, nil
}

// Quote converts reserves into a USD price for the base token and the
// pool's USD liquidity. ok is false for an empty pool.
func Quote(p Pool, r Reserves) (price, liquidityUSD float64, ok bool) {
	base, quote := r.Reserve1, r.Reserve0
	if p.BaseIsToken0 {
		base, quote = r.Reserve0, r.Reserve1
	}
	if base == nil || quote == nil || base.Sign() <= 0 || quote.Sign() <= 0 {
		return 0, 0, false
	}
	price, _ = ratio(quote, p.QuoteDecimals, base, p.BaseDecimals).Float64()
	quoteUSD, _ := new(big.Rat).SetFrac(quote, tenPow(p.QuoteDecimals)).Float64()
	return price, 2 * quoteUSD, true
}

func ratio(num *big.Int, numDec int, den *big.Int, denDec int) *big.Rat {
	numerator := new(big.Rat).SetFrac(num, tenPow(numDec))
	denominator := new(big.Rat).SetFrac(den, tenPow(denDec))
	return new(big.Rat).Quo(numerator, denominator)
}

func tenPow(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
