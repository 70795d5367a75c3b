package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceProvider is the secondary live-market price source. Quotes come
// from the USDT spot pair, which tracks the reporting currency closely
// enough for valuation purposes.
type BinanceProvider struct {
	client   *http.Client
	baseURL  string
	currency string
	pace     *pacer
	log      zerolog.Logger
}

// NewBinanceProvider creates a Binance 24hr-ticker client
func NewBinanceProvider(currency string, timeout, spacing time.Duration, log zerolog.Logger) *BinanceProvider {
	return &BinanceProvider{
		client:   &http.Client{Timeout: timeout},
		baseURL:  binanceBaseURL,
		currency: currency,
		pace:     newPacer(spacing),
		log:      log.With().Str("provider", "binance").Logger(),
	}
}

// Name implements Provider
func (p *BinanceProvider) Name() string { return "binance" }

// binanceTicker mirrors the /ticker/24hr response. Prices arrive as
// strings, which suits decimal parsing without a float round-trip.
type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
}

// Fetch implements Provider
func (p *BinanceProvider) Fetch(ctx context.Context, symbol string) (*domain.Quote, error) {
	if err := p.pace.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	reqURL := fmt.Sprintf("%s/ticker/24hr?symbol=%sUSDT", p.baseURL, symbol)

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

	var ticker binanceTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParse, err)
	}

	price, err := decimal.NewFromString(ticker.LastPrice)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("%w: bad lastPrice %q for %s", domain.ErrProviderParse, ticker.LastPrice, symbol)
	}

	change, err := decimal.NewFromString(ticker.PriceChange)
	if err != nil {
		return nil, fmt.Errorf("%w: bad priceChange %q", domain.ErrProviderParse, ticker.PriceChange)
	}
	changePct, err := decimal.NewFromString(ticker.PriceChangePercent)
	if err != nil {
		return nil, fmt.Errorf("%w: bad priceChangePercent %q", domain.ErrProviderParse, ticker.PriceChangePercent)
	}

	volume := int64(0)
	if v, err := decimal.NewFromString(ticker.Volume); err == nil {
		volume = v.IntPart()
	}

	return &domain.Quote{
		Symbol:       symbol,
		Price:        price,
		Change24h:    change,
		ChangePct24h: changePct,
		Volume:       volume,
		Currency:     p.currency,
		Exchange:     "Binance",
		Source:       p.Name(),
		FetchedAt:    time.Now().UTC(),
	}, nil
}
