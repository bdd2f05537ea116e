/**
 * @description
 * Kalshi provider adapter.
 * One cursor-paged listing covers all open markets; yes-probability comes from the
 * bid/ask mid when both sides are quoted away from the 0/100 sentinels, else
 * from the last trade. Emits paired yes and no snapshots per market.
 *
 * @dependencies
 * - backend/internal/providers
 * - backend/internal/models
 */

package kalshi

import (
	"context"
	"time"

	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/providers"
)

// Adapter implements providers.Provider for Kalshi.
type Adapter struct {
	client *Client
}

func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		client: NewClient(cfg.Providers.KalshiBaseURL),
	}
}

func (a *Adapter) Name() string {
	return models.ProviderKalshi
}

// Enabled is always true: the public market listing needs no credentials.
func (a *Adapter) Enabled() bool {
	return true
}

// FetchSnapshots lists open markets and emits yes/no snapshots for each.
func (a *Adapter) FetchSnapshots(ctx context.Context, tsMinute time.Time) ([]models.OutcomeSnapshot, error) {
	markets, err := a.client.ListOpenMarkets(ctx)
	if err != nil {
		return nil, err
	}

	var snapshots []models.OutcomeSnapshot
	for _, m := range markets {
		if m.Ticker == "" {
			continue
		}

		yesProb, spreadPP := deriveYesQuote(m)

		title := m.Title
		metadata := models.JSONMap{
			"ticker":       m.Ticker,
			"event_ticker": m.EventTicker,
		}
		if combo := DetectCombo(m.Ticker, m.Title, m.SelectedLegs); combo != nil {
			metadata["legs"] = combo.Legs
			metadata["original_title"] = m.Title
			title = combo.Summary
		}

		normalized := providers.NormalizeCategory(m.Category, title)
		volume24h := providers.ParseFloat(m.Volume24h)
		// Liquidity is reported in cents.
		liquidity := providers.ParseFloat(m.Liquidity) / 100

		status := m.Status
		if status == "" {
			status = "open"
		}

		base := models.OutcomeSnapshot{
			TsMinute:           tsMinute,
			Provider:           models.ProviderKalshi,
			MarketID:           m.Ticker,
			MarketTitle:        title,
			RawCategory:        m.Category,
			NormalizedCategory: normalized,
			MarketStatus:       status,
			MarketMetadata:     metadata,
			SpreadPP:           spreadPP,
			Volume24hUSD:       volume24h,
			LiquidityUSD:       liquidity,
		}

		yes := base
		yes.OutcomeID = "yes"
		yes.OutcomeLabel = "Yes"
		yes.Probability = yesProb

		no := base
		no.OutcomeID = "no"
		no.OutcomeLabel = "No"
		no.Probability = 1 - yesProb

		snapshots = append(snapshots, yes, no)
	}

	return snapshots, nil
}

// deriveYesQuote picks mid of bid/ask when both sides carry a real quote.
// Kalshi publishes 0 and 100 as absence-of-quote sentinels, so those fall
// through to the last trade price, and the spread stays null.
func deriveYesQuote(m KalshiMarket) (float64, *float64) {
	bidCents := providers.ParseFloat(m.YesBid)
	askCents := providers.ParseFloat(m.YesAsk)

	bidQuoted := bidCents > 0 && bidCents < 100
	askQuoted := askCents > 0 && askCents < 100

	if bidQuoted && askQuoted {
		mid := (bidCents + askCents) / 2 / 100
		spread := askCents - bidCents
		if spread < 0 {
			spread = -spread
		}
		return clamp01(mid), &spread
	}

	lastCents := providers.ParseFloat(m.LastPrice)
	return clamp01(lastCents / 100), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
