/**
 * @description
 * Service layer for the movers read API.
 * Resolves the latest tick, groups qualifying outcomes into market rows led
 * by the extreme sort-window outcome, paginates, and caches responses in
 * Redis for a short TTL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9
 * - backend/internal/models
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	moversCachePrefix = "movers:"
	moversCacheTTL    = 15 * time.Second
)

// MoversService reads classified movers for the dashboard.
type MoversService struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewMoversService(db *gorm.DB, rdb *redis.Client) *MoversService {
	return &MoversService{DB: db, Redis: rdb}
}

// MoversParams is the validated query surface of the movers endpoint.
type MoversParams struct {
	Providers           []string      `json:"providers"`
	Category            string        `json:"category"`
	Tab                 string        `json:"tab"`
	SortWindow          models.Window `json:"sortWindow"`
	Sort                string        `json:"sort"`
	IncludeLowLiquidity bool          `json:"includeLowLiquidity"`
	MinLiquidity        float64       `json:"minLiquidity"`
	MaxSpread           float64       `json:"maxSpread"`
	Page                int           `json:"page"`
	PageSize            int           `json:"pageSize"`
}

// OutcomeRow is one outcome inside a market row.
type OutcomeRow struct {
	OutcomeID      string                     `json:"outcomeId"`
	OutcomeLabel   string                     `json:"outcomeLabel"`
	Probability    float64                    `json:"probability"`
	SpreadPP       *float64                   `json:"spreadPp"`
	Volume24hUSD   float64                    `json:"volume24hUsd"`
	LiquidityUSD   float64                    `json:"liquidityUsd"`
	Label          string                     `json:"label"`
	ReasonTags     []string                   `json:"reasonTags"`
	OpaqueScore    float64                    `json:"opaqueScore"`
	ExogenousScore float64                    `json:"exogenousScore"`
	Deltas         map[models.Window]*float64 `json:"deltas"`
}

// MarketRow groups a market's outcomes under its lead outcome.
type MarketRow struct {
	Provider           string         `json:"provider"`
	MarketID           string         `json:"marketId"`
	MarketTitle        string         `json:"marketTitle"`
	NormalizedCategory string         `json:"normalizedCategory"`
	Label              string         `json:"label"`
	ReasonTags         []string       `json:"reasonTags"`
	LeadOutcomeID      string         `json:"leadOutcomeId"`
	MarketMeta         models.JSONMap `json:"marketMeta"`
	Outcomes           []OutcomeRow   `json:"outcomes"`
	Timestamp          time.Time      `json:"timestamp"`
}

// MoversMeta echoes paging state back to the dashboard.
type MoversMeta struct {
	SortWindow models.Window `json:"sortWindow"`
	Sort       string        `json:"sort"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalRows  int           `json:"totalRows"`
	TotalPages int           `json:"totalPages"`
}

// MoversResponse is the endpoint payload.
type MoversResponse struct {
	Data []MarketRow `json:"data"`
	Meta MoversMeta  `json:"meta"`
}

type leadRow struct {
	Provider   string
	MarketID   string
	OutcomeID  string
	Label      string
	ReasonTags models.StringArray
}

type moverRow struct {
	Provider           string
	MarketID           string
	OutcomeID          string
	OutcomeLabel       string
	MarketTitle        string
	NormalizedCategory string
	Metadata           models.JSONMap
	Probability        float64
	SpreadPP           *float64 `gorm:"column:spread_pp"`
	Volume24hUSD       float64  `gorm:"column:volume_24h_usd"`
	LiquidityUSD       float64  `gorm:"column:liquidity_usd"`
	Label              string
	ReasonTags         models.StringArray
	OpaqueScore        float64
	ExogenousScore     float64
	Delta1m            *float64 `gorm:"column:delta_1m"`
	Delta5m            *float64 `gorm:"column:delta_5m"`
	Delta10m           *float64 `gorm:"column:delta_10m"`
	Delta30m           *float64 `gorm:"column:delta_30m"`
	Delta1h            *float64 `gorm:"column:delta_1h"`
	Delta6h            *float64 `gorm:"column:delta_6h"`
	Delta12h           *float64 `gorm:"column:delta_12h"`
	Delta24h           *float64 `gorm:"column:delta_24h"`
}

// GetMovers serves one movers page, preferring Cache -> DB.
func (s *MoversService) GetMovers(ctx context.Context, params MoversParams) (*MoversResponse, error) {
	cacheKey := cacheKeyFor(params)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var response MoversResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return &response, nil
			}
		}
	}

	response, err := s.queryMovers(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, data, moversCacheTTL).Err(); err != nil {
				logger.Error("movers: failed to set cache: %v", err)
			}
		}
	}

	return response, nil
}

func (s *MoversService) queryMovers(ctx context.Context, params MoversParams) (*MoversResponse, error) {
	sortColumn := params.SortWindow.Column()
	if sortColumn == "" {
		return nil, fmt.Errorf("invalid sort window %q", params.SortWindow)
	}
	direction := "DESC"
	if params.Sort == "asc" {
		direction = "ASC"
	}

	meta := MoversMeta{
		SortWindow: params.SortWindow,
		Sort:       params.Sort,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}

	var latest *time.Time
	err := s.DB.WithContext(ctx).
		Raw(`SELECT MAX(ts_minute) FROM deltas`).
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return &MoversResponse{Data: []MarketRow{}, Meta: meta}, nil
	}

	filterSQL, filterArgs := s.filterClause(params, *latest)

	// Lead per market: the extreme sort-window outcome under the chosen
	// direction, NULLs last. DISTINCT ON keeps the first row per market.
	leadsSQL := fmt.Sprintf(`
		SELECT DISTINCT ON (d.provider, d.market_id)
		       d.provider, d.market_id, d.outcome_id,
		       c.label, c.reason_tags, d.%[1]s AS sort_value
		FROM deltas d
		JOIN snapshots s
		  ON s.ts_minute = d.ts_minute AND s.provider = d.provider
		 AND s.market_id = d.market_id AND s.outcome_id = d.outcome_id
		JOIN classifications c
		  ON c.ts_minute = d.ts_minute AND c.provider = d.provider
		 AND c.market_id = d.market_id AND c.outcome_id = d.outcome_id
		WHERE %[2]s
		ORDER BY d.provider, d.market_id, d.%[1]s %[3]s NULLS LAST`,
		sortColumn, filterSQL, direction)

	var totalRows int
	err = s.DB.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT COUNT(*) FROM (%s) leads", leadsSQL), filterArgs...).
		Scan(&totalRows).Error
	if err != nil {
		return nil, err
	}

	meta.TotalRows = totalRows
	meta.TotalPages = (totalRows + params.PageSize - 1) / params.PageSize
	if totalRows == 0 {
		return &MoversResponse{Data: []MarketRow{}, Meta: meta}, nil
	}

	pageSQL := fmt.Sprintf(`
		SELECT provider, market_id, outcome_id, label, reason_tags
		FROM (%s) leads
		ORDER BY sort_value %s NULLS LAST
		LIMIT ? OFFSET ?`, leadsSQL, direction)

	var leads []leadRow
	pageArgs := append(append([]interface{}{}, filterArgs...),
		params.PageSize, (params.Page-1)*params.PageSize)
	err = s.DB.WithContext(ctx).Raw(pageSQL, pageArgs...).Scan(&leads).Error
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return &MoversResponse{Data: []MarketRow{}, Meta: meta}, nil
	}

	rows, err := s.fetchOutcomes(ctx, params, *latest, leads, sortColumn)
	if err != nil {
		return nil, err
	}

	data := assembleMarketRows(leads, rows, *latest)
	return &MoversResponse{Data: data, Meta: meta}, nil
}

// filterClause builds the shared WHERE fragment for the leads query.
func (s *MoversService) filterClause(params MoversParams, latest time.Time) (string, []interface{}) {
	clauses := []string{"d.ts_minute = ?", "s.provider IN ?"}
	args := []interface{}{latest, params.Providers}

	if params.Category != "" && params.Category != "all" {
		clauses = append(clauses, "s.normalized_category = ?")
		args = append(args, params.Category)
	}

	switch params.Tab {
	case "opaque":
		clauses = append(clauses, "c.label = ?")
		args = append(args, models.LabelOpaqueInfoSensitive)
	case "exogenous":
		clauses = append(clauses, "c.label = ?")
		args = append(args, models.LabelExogenousArbitrage)
	}

	if !params.IncludeLowLiquidity {
		clauses = append(clauses, "s.liquidity_usd >= ?", "s.spread_pp <= ?")
		args = append(args, params.MinLiquidity, params.MaxSpread)
	}

	return strings.Join(clauses, " AND "), args
}

// fetchOutcomes loads every outcome at the tick for the paginated markets,
// ordered within each market by |sort delta| descending.
func (s *MoversService) fetchOutcomes(ctx context.Context, params MoversParams, latest time.Time, leads []leadRow, sortColumn string) ([]moverRow, error) {
	pairs := make([]string, 0, len(leads))
	args := []interface{}{latest}
	for _, lead := range leads {
		pairs = append(pairs, "(?, ?)")
		args = append(args, lead.Provider, lead.MarketID)
	}

	liquiditySQL := ""
	if !params.IncludeLowLiquidity {
		liquiditySQL = " AND s.liquidity_usd >= ? AND s.spread_pp <= ?"
		args = append(args, params.MinLiquidity, params.MaxSpread)
	}

	query := fmt.Sprintf(`
		SELECT d.provider, d.market_id, d.outcome_id,
		       o.label AS outcome_label,
		       s.market_title, s.normalized_category,
		       m.metadata,
		       s.probability, s.spread_pp, s.volume_24h_usd, s.liquidity_usd,
		       c.label, c.reason_tags, c.opaque_score, c.exogenous_score,
		       d.delta_1m, d.delta_5m, d.delta_10m, d.delta_30m,
		       d.delta_1h, d.delta_6h, d.delta_12h, d.delta_24h
		FROM deltas d
		JOIN snapshots s
		  ON s.ts_minute = d.ts_minute AND s.provider = d.provider
		 AND s.market_id = d.market_id AND s.outcome_id = d.outcome_id
		JOIN classifications c
		  ON c.ts_minute = d.ts_minute AND c.provider = d.provider
		 AND c.market_id = d.market_id AND c.outcome_id = d.outcome_id
		JOIN markets m
		  ON m.provider = d.provider AND m.market_id = d.market_id
		LEFT JOIN outcomes o
		  ON o.provider = d.provider AND o.market_id = d.market_id
		 AND o.outcome_id = d.outcome_id
		WHERE d.ts_minute = ? AND (d.provider, d.market_id) IN (%s)%s
		ORDER BY d.provider, d.market_id, ABS(d.%s) DESC NULLS LAST`,
		strings.Join(pairs, ", "), liquiditySQL, sortColumn)

	var rows []moverRow
	if err := s.DB.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// assembleMarketRows groups outcome rows per market, preserving the leads'
// page order.
func assembleMarketRows(leads []leadRow, rows []moverRow, latest time.Time) []MarketRow {
	type marketKey struct {
		Provider string
		MarketID string
	}

	grouped := make(map[marketKey][]moverRow, len(leads))
	for _, row := range rows {
		key := marketKey{row.Provider, row.MarketID}
		grouped[key] = append(grouped[key], row)
	}

	data := make([]MarketRow, 0, len(leads))
	for _, lead := range leads {
		key := marketKey{lead.Provider, lead.MarketID}
		outcomeRows := grouped[key]
		if len(outcomeRows) == 0 {
			continue
		}

		market := MarketRow{
			Provider:           lead.Provider,
			MarketID:           lead.MarketID,
			MarketTitle:        outcomeRows[0].MarketTitle,
			NormalizedCategory: outcomeRows[0].NormalizedCategory,
			Label:              lead.Label,
			ReasonTags:         lead.ReasonTags,
			LeadOutcomeID:      lead.OutcomeID,
			MarketMeta:         outcomeRows[0].Metadata,
			Timestamp:          latest,
		}

		for _, row := range outcomeRows {
			delta := models.Delta{
				Delta1m: row.Delta1m, Delta5m: row.Delta5m,
				Delta10m: row.Delta10m, Delta30m: row.Delta30m,
				Delta1h: row.Delta1h, Delta6h: row.Delta6h,
				Delta12h: row.Delta12h, Delta24h: row.Delta24h,
			}
			market.Outcomes = append(market.Outcomes, OutcomeRow{
				OutcomeID:      row.OutcomeID,
				OutcomeLabel:   row.OutcomeLabel,
				Probability:    row.Probability,
				SpreadPP:       row.SpreadPP,
				Volume24hUSD:   row.Volume24hUSD,
				LiquidityUSD:   row.LiquidityUSD,
				Label:          row.Label,
				ReasonTags:     row.ReasonTags,
				OpaqueScore:    row.OpaqueScore,
				ExogenousScore: row.ExogenousScore,
				Deltas:         delta.WindowMap(),
			})
		}

		data = append(data, market)
	}

	return data
}

func cacheKeyFor(params MoversParams) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%t:%.0f:%.0f:%d:%d",
		moversCachePrefix,
		strings.Join(params.Providers, ","),
		params.Category, params.Tab, params.SortWindow, params.Sort,
		params.IncludeLowLiquidity, params.MinLiquidity, params.MaxSpread,
		params.Page, params.PageSize)
}
