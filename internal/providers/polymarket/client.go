/**
 * @description
 * HTTP client for the Polymarket Gamma API.
 * Lists open markets with their outcome labels, CLOB token ids, and
 * volume/liquidity aggregates.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 */

package polymarket

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
	gammaTimeout  = 10 * time.Second
	gammaPageSize = 500
)

// GammaClient fetches market listings from the Gamma API.
type GammaClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: gammaTimeout,
		},
	}
}

// GammaMarket is one market object from GET /markets.
// Numeric fields arrive as numbers or strings depending on the endpoint
// revision, so they are decoded as interface{} and projected later.
type GammaMarket struct {
	ID            string      `json:"id"`
	ConditionID   string      `json:"conditionId"`
	Slug          string      `json:"slug"`
	Question      string      `json:"question"`
	Category      string      `json:"category"`
	Outcomes      interface{} `json:"outcomes"`      // []string or stringified JSON
	OutcomePrices interface{} `json:"outcomePrices"` // []string or stringified JSON
	ClobTokenIds  string      `json:"clobTokenIds"`  // stringified JSON array
	Volume24hr    interface{} `json:"volume24hr"`
	Liquidity     interface{} `json:"liquidity"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
	EndDate       string      `json:"endDate"`
}

// ListOpenMarkets pages through GET /markets until a short page.
func (c *GammaClient) ListOpenMarkets(ctx context.Context) ([]GammaMarket, error) {
	var all []GammaMarket
	offset := 0

	for {
		page, err := c.listMarketsPage(ctx, gammaPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < gammaPageSize {
			break
		}
		offset += gammaPageSize
	}

	return all, nil
}

func (c *GammaClient) listMarketsPage(ctx context.Context, limit, offset int) ([]GammaMarket, error) {
	u, err := url.Parse(fmt.Sprintf("%s/markets", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gamma api error: status %d", resp.StatusCode)
	}

	var markets []GammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, err
	}

	return markets, nil
}

// ParseStringList decodes Gamma's dual-shape lists: either a JSON array of
// strings or a stringified JSON array ("[\"Yes\", \"No\"]").
func ParseStringList(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		var out []string
		if err := json.Unmarshal([]byte(val), &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}
