/**
 * @description
 * Polymarket provider adapter.
 * Lists open markets from Gamma, fetches per-token order books from the CLOB
 * with bounded concurrency, and emits one snapshot per outcome token.
 *
 * @dependencies
 * - backend/internal/providers
 * - backend/internal/models
 * - backend/internal/logger
 */

package polymarket

import (
	"context"
	"sync"
	"time"

	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/providers"
)

const (
	// bookConcurrency bounds parallel CLOB book fetches per cycle.
	bookConcurrency = 16
	// depthLevels caps how many price levels per side count toward liquidity.
	depthLevels = 20
)

// Adapter implements providers.Provider for Polymarket.
type Adapter struct {
	gamma *GammaClient
	books *BookClient
}

func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		gamma: NewGammaClient(cfg.Providers.PolymarketGammaURL),
		books: NewBookClient(cfg.Providers.PolymarketClobURL),
	}
}

func (a *Adapter) Name() string {
	return models.ProviderPolymarket
}

// Enabled is always true: the Gamma and CLOB read endpoints need no credentials.
func (a *Adapter) Enabled() bool {
	return true
}

// FetchSnapshots lists open markets and derives one snapshot per outcome.
func (a *Adapter) FetchSnapshots(ctx context.Context, tsMinute time.Time) ([]models.OutcomeSnapshot, error) {
	markets, err := a.gamma.ListOpenMarkets(ctx)
	if err != nil {
		return nil, err
	}

	// Collect every token across all markets, then fetch their books with a
	// bounded worker fan-out before assembling snapshots.
	type tokenJob struct {
		tokenID string
	}
	var jobs []tokenJob
	seen := make(map[string]bool)
	for _, m := range markets {
		for _, tokenID := range ParseStringList(m.ClobTokenIds) {
			if tokenID == "" || seen[tokenID] {
				continue
			}
			seen[tokenID] = true
			jobs = append(jobs, tokenJob{tokenID: tokenID})
		}
	}

	stats := make(map[string]BookStats, len(jobs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, bookConcurrency)

	for _, job := range jobs {
		wg.Add(1)
		go func(tokenID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			book, err := a.books.GetBook(ctx, tokenID)
			if err != nil {
				// Missing book falls back to market-level liquidity and the
				// Gamma outcome price; not worth failing the market for.
				return
			}
			s := book.Summarize(depthLevels)
			mu.Lock()
			stats[tokenID] = s
			mu.Unlock()
		}(job.tokenID)
	}
	wg.Wait()

	var snapshots []models.OutcomeSnapshot
	for _, m := range markets {
		if m.ConditionID == "" || m.Closed {
			continue
		}

		labels := ParseStringList(m.Outcomes)
		prices := ParseStringList(m.OutcomePrices)
		tokens := ParseStringList(m.ClobTokenIds)
		if len(labels) == 0 || len(tokens) != len(labels) {
			logger.Error("polymarket: market %s has mismatched outcomes/tokens, skipping", m.ConditionID)
			continue
		}

		normalized := providers.NormalizeCategory(m.Category, m.Question)
		marketLiquidity := providers.ParseFloat(m.Liquidity)
		volume24h := providers.ParseFloat(m.Volume24hr)
		metadata := models.JSONMap{
			"slug":     m.Slug,
			"gamma_id": m.ID,
		}

		for i, label := range labels {
			tokenID := tokens[i]

			var probability float64
			var spreadPP *float64
			liquidity := marketLiquidity

			if s, ok := stats[tokenID]; ok && (s.BestBid != nil || s.BestAsk != nil) {
				switch {
				case s.BestBid != nil && s.BestAsk != nil:
					probability = providers.NormalizeProbability((*s.BestBid + *s.BestAsk) / 2)
					spreadPP = providers.SpreadPP(*s.BestBid, *s.BestAsk)
				case s.BestBid != nil:
					probability = providers.NormalizeProbability(*s.BestBid)
				default:
					probability = providers.NormalizeProbability(*s.BestAsk)
				}
				if s.DepthUSD > 0 {
					liquidity = s.DepthUSD
				}
			} else {
				// No book: fall back to the Gamma mid/last outcome price.
				if i < len(prices) {
					probability = providers.NormalizeProbability(providers.ParseFloat(prices[i]))
				}
			}

			snapshots = append(snapshots, models.OutcomeSnapshot{
				TsMinute:           tsMinute,
				Provider:           models.ProviderPolymarket,
				MarketID:           m.ConditionID,
				MarketTitle:        m.Question,
				RawCategory:        m.Category,
				NormalizedCategory: normalized,
				MarketStatus:       "open",
				MarketMetadata:     metadata,
				OutcomeID:          tokenID,
				OutcomeLabel:       label,
				Probability:        probability,
				SpreadPP:           spreadPP,
				Volume24hUSD:       volume24h,
				LiquidityUSD:       liquidity,
			})
		}
	}

	return snapshots, nil
}
