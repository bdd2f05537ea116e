/**
 * @description
 * HTTP client for the Opinion REST API.
 * Every request passes through the pacer; 429 responses back off
 * exponentially with bounded retries before surfacing as an error.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 */

package opinion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	clientTimeout = 10 * time.Second
	listPageSize  = 100

	// ~14 rps stays under the documented ceiling with headroom for clock skew.
	requestsPerSecond = 14

	maxRetries       = 3
	retryBackoffBase = 500 * time.Millisecond
)

// Client fetches market listings and order depth from the Opinion API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	pacer      *pacer
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: clientTimeout,
		},
		pacer: newPacer(requestsPerSecond),
	}
}

// OpinionMarket is one market row from the listing endpoint.
type OpinionMarket struct {
	MarketID   interface{}      `json:"market_id"`
	Title      string           `json:"title"`
	Category   string           `json:"category"`
	Status     string           `json:"status"`
	MarketType string           `json:"market_type"` // "binary" or "categorical"
	YesPrice   interface{}      `json:"yes_price"`
	Volume24h  interface{}      `json:"volume_24h"`
	Liquidity  interface{}      `json:"liquidity"`
	Outcomes   []OpinionOutcome `json:"outcomes"`
}

// OpinionOutcome is one leg of a categorical market.
type OpinionOutcome struct {
	OutcomeID interface{} `json:"outcome_id"`
	Label     string      `json:"label"`
	Price     interface{} `json:"price"`
}

// Depth is the order-depth snapshot for one outcome.
type Depth struct {
	Bids []DepthLevel `json:"bids"`
	Asks []DepthLevel `json:"asks"`
}

// DepthLevel is a single depth entry; fields arrive as strings.
type DepthLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type listResponse struct {
	Code   int `json:"code"`
	Result struct {
		Rows  []OpinionMarket `json:"rows"`
		Total int             `json:"total"`
	} `json:"result"`
}

type depthResponse struct {
	Code   int   `json:"code"`
	Result Depth `json:"result"`
}

// ListOpenMarkets paginates the listing until an empty or short page.
func (c *Client) ListOpenMarkets(ctx context.Context) ([]OpinionMarket, error) {
	var all []OpinionMarket
	page := 1

	for {
		params := url.Values{}
		params.Set("status", "open")
		params.Set("page", strconv.Itoa(page))
		params.Set("size", strconv.Itoa(listPageSize))

		var decoded listResponse
		if err := c.getJSON(ctx, "/openapi/markets", params, &decoded); err != nil {
			return nil, err
		}

		all = append(all, decoded.Result.Rows...)
		if len(decoded.Result.Rows) < listPageSize {
			break
		}
		page++
	}

	return all, nil
}

// GetDepth fetches the order depth for one outcome of one market.
func (c *Client) GetDepth(ctx context.Context, marketID, outcomeID string) (*Depth, error) {
	params := url.Values{}
	params.Set("market_id", marketID)
	params.Set("outcome_id", outcomeID)

	var decoded depthResponse
	if err := c.getJSON(ctx, "/openapi/orderbook", params, &decoded); err != nil {
		return nil, err
	}
	return &decoded.Result, nil
}

// getJSON performs a paced GET with bounded 429 retries.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := fmt.Sprintf("%s%s?%s", c.BaseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		if c.APIKey != "" {
			req.Header.Set("apikey", c.APIKey)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			delay := retryBackoffBase * time.Duration(1<<attempt)
			if retryAfter := parseRetryAfter(resp.Header.Get("Retry-After")); retryAfter > delay {
				delay = retryAfter
			}
			lastErr = fmt.Errorf("opinion api rate limited (attempt %d)", attempt+1)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("opinion api error: status %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		return err
	}

	return lastErr
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
