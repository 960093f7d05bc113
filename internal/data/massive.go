package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/iv-solver/internal/logger"
)

// maxRateLimitRetries bounds how often a 429 response is retried.
const maxRateLimitRetries = 3

// massiveQuoteSource reads option prices from Massive's aggregates API
// with raw HTTP calls.
type massiveQuoteSource struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint (e.g. https://api.massive.com).
	BaseURL string

	// rateLimitWait returns how long to back off after a 429.
	rateLimitWait func() time.Duration

	secondary QuoteSource
}

// massivePrevResp models the previous-day aggregate response.
type massivePrevResp struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Close  float64 `json:"c"`
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Volume float64 `json:"v"`
		Time   int64   `json:"t"`
	} `json:"results"`
	Message string `json:"message"`
}

// NewMassiveQuoteSource constructs a Massive-backed quote source. When the
// API cannot price a contract, secondary (which may be nil) is consulted
// through FetchOptionPrice.
func NewMassiveQuoteSource(apiKey, baseURL string, timeout time.Duration, secondary QuoteSource) QuoteSource {
	logger.Infof("initializing Massive quote source")

	return &massiveQuoteSource{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL:       baseURL,
		rateLimitWait: untilNextMinute,
		secondary:     secondary,
	}
}

func (m *massiveQuoteSource) Secondary() QuoteSource {
	return m.secondary
}

// OptionPrice returns the previous session's close of the contract.
func (m *massiveQuoteSource) OptionPrice(ctx context.Context, c Contract) (float64, error) {
	symbol := c.Symbol()

	u, err := url.Parse(m.BaseURL + "/v2/aggs/ticker/" + url.PathEscape(symbol) + "/prev")
	if err != nil {
		return 0, err
	}
	query := u.Query()
	query.Set("adjusted", "true")
	query.Set("apiKey", m.APIKey)
	u.RawQuery = query.Encode()

	logger.Debugf("previous close request for %s", symbol)

	body, status, err := m.get(ctx, u.String())
	if err != nil {
		return 0, err
	}

	var prev massivePrevResp
	if status != http.StatusOK {
		_ = json.Unmarshal(body, &prev)
		logger.Errorf("massive aggregates API error status=%d message=%s", status, prev.Message)
		return 0, fmt.Errorf("massive returned status %d: %s", status, prev.Message)
	}

	if err := json.Unmarshal(body, &prev); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	if len(prev.Results) == 0 || !(prev.Results[0].Close > 0) {
		return 0, fmt.Errorf("%w for %s", ErrNoQuote, symbol)
	}

	logger.Tracef("massive close %s=%.4f", symbol, prev.Results[0].Close)
	return prev.Results[0].Close, nil
}

// get performs a GET request, backing off on HTTP 429 up to maxRateLimitRetries times.
func (m *massiveQuoteSource) get(ctx context.Context, reqURL string) ([]byte, int, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
		req.Header.Set("Accept", "application/json")

		resp, err := m.Client.Do(req)
		if err != nil {
			return nil, 0, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetries {
			resp.Body.Close()
			wait := m.rateLimitWait()
			logger.Infof("rate limit hit, sleeping for %s", wait)

			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, 0, err
		}
		if len(body) == 0 {
			return nil, resp.StatusCode, fmt.Errorf("empty response body (status %d)", resp.StatusCode)
		}
		return body, resp.StatusCode, nil
	}
}

// untilNextMinute returns the time left until the next minute boundary,
// when per-minute rate limits reset.
func untilNextMinute() time.Duration {
	now := time.Now()
	return time.Until(now.Truncate(time.Minute).Add(time.Minute))
}
