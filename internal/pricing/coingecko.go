package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/universe"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider is the primary live-market price source
type CoinGeckoProvider struct {
	client   *http.Client
	baseURL  string
	currency string
	pace     *pacer
	log      zerolog.Logger
}

// NewCoinGeckoProvider creates a CoinGecko client. currency is the
// reporting currency all quotes are denominated in (lowercased for the API).
func NewCoinGeckoProvider(currency string, timeout, spacing time.Duration, log zerolog.Logger) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:   &http.Client{Timeout: timeout},
		baseURL:  coinGeckoBaseURL,
		currency: currency,
		pace:     newPacer(spacing),
		log:      log.With().Str("provider", "coingecko").Logger(),
	}
}

// Name implements Provider
func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// coinGeckoMarket is the typed slice element of /coins/markets responses.
// Responses are normalized into domain.Quote immediately; nothing
// downstream sees CoinGecko field names.
type coinGeckoMarket struct {
	Symbol            string   `json:"symbol"`
	CurrentPrice      *float64 `json:"current_price"`
	PriceChange24h    float64  `json:"price_change_24h"`
	PriceChangePct24h float64  `json:"price_change_percentage_24h"`
	TotalVolume       float64  `json:"total_volume"`
}

// Fetch implements Provider
func (p *CoinGeckoProvider) Fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	id := universe.CoinGeckoID(symbol)
	if id == "" {
		return nil, fmt.Errorf("%w: no coingecko id for symbol %s", domain.ErrProviderUnavailable, symbol)
	}

	if err := p.pace.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	params := url.Values{}
	params.Add("vs_currency", strings.ToLower(p.currency))
	params.Add("ids", id)

	reqURL := p.baseURL + "/coins/markets?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	var markets []coinGeckoMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParse, err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: empty market list for %s", domain.ErrProviderParse, symbol)
	}

	market := markets[0]
	if market.CurrentPrice == nil || *market.CurrentPrice <= 0 {
		return nil, fmt.Errorf("%w: missing price for %s", domain.ErrProviderParse, symbol)
	}

	return &domain.Quote{
		Symbol:       symbol,
		Price:        decimal.NewFromFloat(*market.CurrentPrice),
		Change24h:    decimal.NewFromFloat(market.PriceChange24h),
		ChangePct24h: decimal.NewFromFloat(market.PriceChangePct24h),
		Volume:       int64(market.TotalVolume),
		Currency:     p.currency,
		Exchange:     "CoinGecko",
		Source:       p.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}
