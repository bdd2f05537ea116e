/**
 * @description
 * Opinion provider adapter.
 * Feature-flagged; disabled entirely when the API key is missing. Binary
 * markets derive no = 1 − yes from the listing row alone; categorical markets
 * fetch order depth per outcome (serialized behind the pacer).
 *
 * @dependencies
 * - backend/internal/providers
 * - backend/internal/models
 * - backend/internal/logger
 */

package opinion

import (
	"context"
	"strconv"
	"time"

	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/providers"
)

// Adapter implements providers.Provider for Opinion.
type Adapter struct {
	client  *Client
	enabled bool
}

func NewAdapter(cfg *config.Config) *Adapter {
	enabled := cfg.Providers.OpinionEnabled && cfg.Providers.OpinionAPIKey != ""
	return &Adapter{
		client:  NewClient(cfg.Providers.OpinionBaseURL, cfg.Providers.OpinionAPIKey),
		enabled: enabled,
	}
}

func (a *Adapter) Name() string {
	return models.ProviderOpinion
}

func (a *Adapter) Enabled() bool {
	return a.enabled
}

// FetchSnapshots lists open markets and emits snapshots per outcome.
func (a *Adapter) FetchSnapshots(ctx context.Context, tsMinute time.Time) ([]models.OutcomeSnapshot, error) {
	markets, err := a.client.ListOpenMarkets(ctx)
	if err != nil {
		return nil, err
	}

	var snapshots []models.OutcomeSnapshot
	for _, m := range markets {
		marketID := providers.ParseString(m.MarketID)
		if marketID == "" {
			continue
		}

		normalized := providers.NormalizeCategory(m.Category, m.Title)
		volume24h := providers.ParseFloat(m.Volume24h)
		liquidity := providers.ParseFloat(m.Liquidity)
		status := m.Status
		if status == "" {
			status = "open"
		}

		base := models.OutcomeSnapshot{
			TsMinute:           tsMinute,
			Provider:           models.ProviderOpinion,
			MarketID:           marketID,
			MarketTitle:        m.Title,
			RawCategory:        m.Category,
			NormalizedCategory: normalized,
			MarketStatus:       status,
			MarketMetadata: models.JSONMap{
				"market_type": m.MarketType,
			},
			Volume24hUSD: volume24h,
			LiquidityUSD: liquidity,
		}

		if len(m.Outcomes) > 1 {
			snapshots = append(snapshots, a.categoricalSnapshots(ctx, base, marketID, m.Outcomes)...)
			continue
		}

		yes := providers.NormalizeProbability(providers.ParseFloat(m.YesPrice))

		yesRow := base
		yesRow.OutcomeID = "yes"
		yesRow.OutcomeLabel = "Yes"
		yesRow.Probability = yes

		noRow := base
		noRow.OutcomeID = "no"
		noRow.OutcomeLabel = "No"
		noRow.Probability = 1 - yes

		snapshots = append(snapshots, yesRow, noRow)
	}

	return snapshots, nil
}

// categoricalSnapshots fetches depth per outcome. A failed depth fetch falls
// back to the listing price for that outcome instead of dropping the market.
func (a *Adapter) categoricalSnapshots(ctx context.Context, base models.OutcomeSnapshot, marketID string, outcomes []OpinionOutcome) []models.OutcomeSnapshot {
	rows := make([]models.OutcomeSnapshot, 0, len(outcomes))

	for _, outcome := range outcomes {
		outcomeID := providers.ParseString(outcome.OutcomeID)
		if outcomeID == "" {
			continue
		}

		row := base
		row.OutcomeID = outcomeID
		row.OutcomeLabel = outcome.Label
		row.Probability = providers.NormalizeProbability(providers.ParseFloat(outcome.Price))

		depth, err := a.client.GetDepth(ctx, marketID, outcomeID)
		if err != nil {
			logger.Error("opinion: depth fetch failed for %s/%s: %v", marketID, outcomeID, err)
			rows = append(rows, row)
			continue
		}

		if bid, ask, ok := bestQuotes(depth); ok {
			row.Probability = providers.NormalizeProbability((bid + ask) / 2)
			row.SpreadPP = providers.SpreadPP(bid, ask)
		}

		rows = append(rows, row)
	}

	return rows
}

// bestQuotes extracts the best bid and ask from a depth snapshot.
func bestQuotes(depth *Depth) (bid, ask float64, ok bool) {
	for _, lvl := range depth.Bids {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		if price > bid {
			bid = price
		}
	}
	ask = -1
	for _, lvl := range depth.Asks {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		if ask < 0 || price < ask {
			ask = price
		}
	}
	if bid > 0 && ask > 0 {
		return bid, ask, true
	}
	return 0, 0, false
}
