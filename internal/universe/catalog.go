// Package universe is the built-in coin catalog: tradable symbols, their
// display names, provider identifiers, and the baseline prices the
// synthetic quote tier falls back on.
package universe

import (
	"sort"
	"strings"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

// Coin describes one catalog entry
type Coin struct {
	Symbol      string  // uppercase ticker, e.g. BTC
	Name        string  // display name, e.g. Bitcoin
	CoinGeckoID string  // id used by the CoinGecko API
	Baseline    float64 // reference price for the synthetic provider
}

// MaxSearchResults caps symbol search output
const MaxSearchResults = 10

// DefaultBaseline is used for symbols absent from the catalog
const DefaultBaseline = 100.0

// catalog is ordered by symbol; Search relies on that for stable output.
var catalog = []Coin{
	{Symbol: "ADA", Name: "Cardano", CoinGeckoID: "cardano", Baseline: 0.45},
	{Symbol: "ARB", Name: "Arbitrum", CoinGeckoID: "arbitrum", Baseline: 1.10},
	{Symbol: "ATOM", Name: "Cosmos", CoinGeckoID: "cosmos", Baseline: 9.50},
	{Symbol: "AVAX", Name: "Avalanche", CoinGeckoID: "avalanche-2", Baseline: 35.00},
	{Symbol: "BNB", Name: "BNB", CoinGeckoID: "binancecoin", Baseline: 310.00},
	{Symbol: "BTC", Name: "Bitcoin", CoinGeckoID: "bitcoin", Baseline: 43000.00},
	{Symbol: "DOGE", Name: "Dogecoin", CoinGeckoID: "dogecoin", Baseline: 0.08},
	{Symbol: "DOT", Name: "Polkadot", CoinGeckoID: "polkadot", Baseline: 7.20},
	{Symbol: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum", Baseline: 2300.00},
	{Symbol: "LINK", Name: "Chainlink", CoinGeckoID: "chainlink", Baseline: 14.50},
	{Symbol: "LTC", Name: "Litecoin", CoinGeckoID: "litecoin", Baseline: 72.00},
	{Symbol: "MATIC", Name: "Polygon", CoinGeckoID: "matic-network", Baseline: 0.85},
	{Symbol: "NEAR", Name: "NEAR Protocol", CoinGeckoID: "near", Baseline: 3.40},
	{Symbol: "OP", Name: "Optimism", CoinGeckoID: "optimism", Baseline: 2.20},
	{Symbol: "SOL", Name: "Solana", CoinGeckoID: "solana", Baseline: 98.00},
	{Symbol: "TON", Name: "Toncoin", CoinGeckoID: "the-open-network", Baseline: 2.30},
	{Symbol: "TRX", Name: "TRON", CoinGeckoID: "tron", Baseline: 0.11},
	{Symbol: "UNI", Name: "Uniswap", CoinGeckoID: "uniswap", Baseline: 6.10},
	{Symbol: "XLM", Name: "Stellar", CoinGeckoID: "stellar", Baseline: 0.12},
	{Symbol: "XRP", Name: "XRP", CoinGeckoID: "ripple", Baseline: 0.55},
}

// Lookup returns the catalog entry for a symbol, nil when unknown
func Lookup(symbol string) *Coin {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	i := sort.Search(len(catalog), func(i int) bool {
		return catalog[i].Symbol >= symbol
	})
	if i < len(catalog) && catalog[i].Symbol == symbol {
		return &catalog[i]
	}
	return nil
}

// Baseline returns the synthetic reference price for a symbol, falling
// back to DefaultBaseline for symbols outside the catalog.
func Baseline(symbol string) float64 {
	if coin := Lookup(symbol); coin != nil {
		return coin.Baseline
	}
	return DefaultBaseline
}

// CoinGeckoID maps a symbol to its CoinGecko id, empty when unknown
func CoinGeckoID(symbol string) string {
	if coin := Lookup(symbol); coin != nil {
		return coin.CoinGeckoID
	}
	return ""
}

// Search performs a case-insensitive substring match over symbol and
// display name, capped at MaxSearchResults.
func Search(query string) []domain.SymbolInfo {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []domain.SymbolInfo
	for i := range catalog {
		if len(results) >= MaxSearchResults {
			break
		}
		coin := &catalog[i]
		if strings.Contains(strings.ToLower(coin.Symbol), query) ||
			strings.Contains(strings.ToLower(coin.Name), query) {
			results = append(results, domain.SymbolInfo{Symbol: coin.Symbol, Name: coin.Name})
		}
	}
	return results
}
