/**
 * @description
 * HTTP client for the Polymarket CLOB order-book endpoint, plus the
 * best-bid/best-ask/depth math applied per token.
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
	"sort"
	"strconv"
	"time"
)

const bookTimeout = 10 * time.Second

// BookClient fetches per-token order books from the CLOB API.
type BookClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewBookClient(baseURL string) *BookClient {
	return &BookClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: bookTimeout,
		},
	}
}

// Book is the simplified order-book snapshot returned by the CLOB API.
type Book struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// BookLevel is a single price level. The CLOB delivers both fields as strings.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// GetBook fetches the order book for one token.
func (c *BookClient) GetBook(ctx context.Context, tokenID string) (*Book, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("tokenID is required")
	}

	u := fmt.Sprintf("%s/book?token_id=%s", c.BaseURL, url.QueryEscape(tokenID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clob book error: status %d", resp.StatusCode)
	}

	var book Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, err
	}

	return &book, nil
}

// BookStats condenses one book into the fields the snapshot needs.
type BookStats struct {
	BestBid  *float64
	BestAsk  *float64
	DepthUSD float64
}

// Summarize computes best bid/ask and the USD depth over the top maxLevels
// price levels on each side. Level ordering from the API is not relied upon.
func (b *Book) Summarize(maxLevels int) BookStats {
	bids := parseLevels(b.Bids)
	asks := parseLevels(b.Asks)

	// Best bid is the highest buy, best ask the lowest sell.
	sort.Slice(bids, func(i, j int) bool { return bids[i].price > bids[j].price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].price < asks[j].price })

	var stats BookStats
	if len(bids) > 0 {
		best := bids[0].price
		stats.BestBid = &best
	}
	if len(asks) > 0 {
		best := asks[0].price
		stats.BestAsk = &best
	}

	for i, lvl := range bids {
		if i >= maxLevels {
			break
		}
		stats.DepthUSD += lvl.price * lvl.size
	}
	for i, lvl := range asks {
		if i >= maxLevels {
			break
		}
		stats.DepthUSD += lvl.price * lvl.size
	}

	return stats
}

type parsedLevel struct {
	price float64
	size  float64
}

func parseLevels(levels []BookLevel) []parsedLevel {
	out := make([]parsedLevel, 0, len(levels))
	for _, lvl := range levels {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil || size < 0 {
			continue
		}
		out = append(out, parsedLevel{price: price, size: size})
	}
	return out
}
