package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() MoversParams {
	return MoversParams{
		Providers:    []string{models.ProviderPolymarket, models.ProviderKalshi},
		Category:     "all",
		Tab:          "all",
		SortWindow:   models.Window1h,
		Sort:         "desc",
		MinLiquidity: 5000,
		MaxSpread:    15,
		Page:         1,
		PageSize:     50,
	}
}

func TestCacheKey_DistinguishesParams(t *testing.T) {
	base := testParams()

	variants := []MoversParams{}
	p := base
	p.Page = 2
	variants = append(variants, p)
	p = base
	p.Tab = "opaque"
	variants = append(variants, p)
	p = base
	p.SortWindow = models.Window5m
	variants = append(variants, p)
	p = base
	p.Providers = []string{models.ProviderOpinion}
	variants = append(variants, p)

	baseKey := cacheKeyFor(base)
	for i, variant := range variants {
		if cacheKeyFor(variant) == baseKey {
			t.Errorf("variant %d collides with base key %q", i, baseKey)
		}
	}

	assert.Equal(t, baseKey, cacheKeyFor(base))
}

func TestGetMovers_ServesFromCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	params := testParams()
	cached := MoversResponse{
		Data: []MarketRow{{
			Provider:    models.ProviderKalshi,
			MarketID:    "FED-DEC",
			MarketTitle: "Fed cuts in December?",
		}},
		Meta: MoversMeta{SortWindow: params.SortWindow, Sort: "desc", Page: 1, PageSize: 50, TotalRows: 1, TotalPages: 1},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKeyFor(params), string(payload)))

	// DB is nil: any fallthrough past the cache would panic, so a clean
	// return proves the cache path.
	service := NewMoversService(nil, redisClient)
	response, err := service.GetMovers(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "FED-DEC", response.Data[0].MarketID)
	assert.Equal(t, 1, response.Meta.TotalRows)
}

func TestAssembleMarketRows_GroupsAndPreservesLeadOrder(t *testing.T) {
	latest := time.Date(2026, 8, 6, 14, 3, 0, 0, time.UTC)
	v1, v2 := 12.0, -3.0

	leads := []leadRow{
		{Provider: "kalshi", MarketID: "B", OutcomeID: "yes", Label: models.LabelOpaqueInfoSensitive, ReasonTags: models.StringArray{"tight_spread"}},
		{Provider: "polymarket", MarketID: "A", OutcomeID: "tok-1", Label: models.LabelUnclear},
	}
	rows := []moverRow{
		{Provider: "polymarket", MarketID: "A", OutcomeID: "tok-1", MarketTitle: "Market A", NormalizedCategory: "politics", Delta1h: &v2},
		{Provider: "kalshi", MarketID: "B", OutcomeID: "yes", MarketTitle: "Market B", NormalizedCategory: "macro", Delta1h: &v1},
		{Provider: "kalshi", MarketID: "B", OutcomeID: "no", MarketTitle: "Market B", NormalizedCategory: "macro"},
	}

	data := assembleMarketRows(leads, rows, latest)

	require.Len(t, data, 2)
	// Page order follows leads, not row order.
	assert.Equal(t, "B", data[0].MarketID)
	assert.Equal(t, "A", data[1].MarketID)

	assert.Equal(t, "yes", data[0].LeadOutcomeID)
	assert.Equal(t, models.LabelOpaqueInfoSensitive, data[0].Label)
	assert.Len(t, data[0].Outcomes, 2)
	assert.Equal(t, "Market B", data[0].MarketTitle)
	assert.True(t, data[0].Timestamp.Equal(latest))

	// The full window map rides along on every outcome.
	deltas := data[0].Outcomes[0].Deltas
	require.Contains(t, deltas, models.Window1h)
	require.NotNil(t, deltas[models.Window1h])
	assert.Equal(t, 12.0, *deltas[models.Window1h])
	assert.Nil(t, deltas[models.Window24h])
}

func TestAssembleMarketRows_SkipsLeadsWithoutOutcomes(t *testing.T) {
	leads := []leadRow{{Provider: "kalshi", MarketID: "GONE", OutcomeID: "yes"}}

	data := assembleMarketRows(leads, nil, time.Now())
	assert.Empty(t, data)
}

func TestPaginationMath(t *testing.T) {
	// 125 qualifying markets, pageSize 50 → 3 pages.
	totalRows := 125
	pageSize := 50
	totalPages := (totalRows + pageSize - 1) / pageSize
	assert.Equal(t, 3, totalPages)

	// Page 3 offset covers the final 25 rows.
	offset := (3 - 1) * pageSize
	assert.Equal(t, 100, offset)
	assert.Equal(t, 25, totalRows-offset)
}
