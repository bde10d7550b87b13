// internal/marketdata/dexscreener.go
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.dexscreener.com/latest/dex"
	rateLimit      = 300 // requests per minute
	requestTimeout = 10 * time.Second
)

// ErrNoPairs means dexscreener knows no trading pair for the token. Callers
// must treat this as "no market data", never as a zero price or liquidity.
var ErrNoPairs = errors.New("no pairs listed for token")

// Response is the dexscreener token endpoint payload.
type Response struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairInfo `json:"pairs"`
}

type PairInfo struct {
	ChainID       string        `json:"chainId"`
	DexID         string        `json:"dexId"`
	PairAddress   string        `json:"pairAddress"`
	BaseToken     TokenInfo     `json:"baseToken"`
	QuoteToken    TokenInfo     `json:"quoteToken"`
	PriceNative   string        `json:"priceNative"`
	PriceUSD      string        `json:"priceUsd"`
	Liquidity     LiquidityInfo `json:"liquidity"`
	PairCreatedAt int64         `json:"pairCreatedAt"`
}

type TokenInfo struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type LiquidityInfo struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// Service is a stateless gateway over the dexscreener API. It never caches:
// every call is a live query, and every failure is a typed error rather than
// a zero sentinel.
type Service struct {
	client      *http.Client
	logger      *zap.Logger
	rateLimiter *time.Ticker
	baseURL     string
}

func NewService(logger *zap.Logger) *Service {
	return &Service{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		logger:      logger.Named("dexscreener"),
		rateLimiter: time.NewTicker(time.Minute / rateLimit),
		baseURL:     defaultBaseURL,
	}
}

// GetPrice returns the USD price of the token's deepest pair.
func (s *Service) GetPrice(ctx context.Context, mint string) (float64, error) {
	pair, err := s.bestPair(ctx, mint)
	if err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(pair.PriceUSD, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q for %s: %w", pair.PriceUSD, mint, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %v for %s", price, mint)
	}
	return price, nil
}

// GetLiquidity returns the USD pool depth of the token's deepest pair.
func (s *Service) GetLiquidity(ctx context.Context, mint string) (float64, error) {
	pair, err := s.bestPair(ctx, mint)
	if err != nil {
		return 0, err
	}
	return pair.Liquidity.USD, nil
}

// bestPair picks the pair with the highest USD liquidity.
func (s *Service) bestPair(ctx context.Context, mint string) (*PairInfo, error) {
	url := fmt.Sprintf("%s/tokens/%s", s.baseURL, mint)

	response, err := s.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get token pairs: %w", err)
	}
	if len(response.Pairs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPairs, mint)
	}

	best := &response.Pairs[0]
	for i := range response.Pairs[1:] {
		pair := &response.Pairs[i+1]
		if pair.Liquidity.USD > best.Liquidity.USD {
			best = pair
		}
	}
	return best, nil
}

func (s *Service) doRequest(ctx context.Context, url string) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.rateLimiter.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}
