/**
 * @description
 * HTTP client for the Kalshi trade API.
 * Lists open markets with cursor pagination. Quote fields arrive in cents.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 */

package kalshi

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
	pageSize      = 1000
)

// Client fetches market listings from the Kalshi REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// KalshiMarket is one market from GET /markets. Numeric fields are decoded
// defensively since the API has shipped both numbers and strings. All quote
// fields and liquidity arrive in cents.
type KalshiMarket struct {
	Ticker       string        `json:"ticker"`
	EventTicker  string        `json:"event_ticker"`
	Title        string        `json:"title"`
	Subtitle     string        `json:"subtitle"`
	Category     string        `json:"category"`
	Status       string        `json:"status"`
	YesBid       interface{}   `json:"yes_bid"`
	YesAsk       interface{}   `json:"yes_ask"`
	LastPrice    interface{}   `json:"last_price"`
	Volume24h    interface{}   `json:"volume_24h"`
	Liquidity    interface{}   `json:"liquidity"`
	OpenInterest interface{}   `json:"open_interest"`
	SelectedLegs []interface{} `json:"selected_legs"`
}

type marketsResponse struct {
	Markets []KalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// ListOpenMarkets pages through GET /markets with the cursor until exhausted.
func (c *Client) ListOpenMarkets(ctx context.Context) ([]KalshiMarket, error) {
	var all []KalshiMarket
	cursor := ""

	for {
		page, next, err := c.listMarketsPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}

	return all, nil
}

func (c *Client) listMarketsPage(ctx context.Context, cursor string) ([]KalshiMarket, string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/markets", c.BaseURL))
	if err != nil {
		return nil, "", err
	}

	q := u.Query()
	q.Set("status", "open")
	q.Set("limit", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("kalshi api error: status %d", resp.StatusCode)
	}

	var decoded marketsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", err
	}

	return decoded.Markets, decoded.Cursor, nil
}
