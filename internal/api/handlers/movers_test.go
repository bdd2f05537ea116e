package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paramsFor routes a request through Fiber and captures the parsed params.
func paramsFor(t *testing.T, target string) services.MoversParams {
	t.Helper()

	var captured services.MoversParams
	app := fiber.New()
	app.Get("/movers", func(c *fiber.Ctx) error {
		captured = parseMoversParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return captured
}

func TestParseMoversParams_Defaults(t *testing.T) {
	params := paramsFor(t, "/movers")

	assert.Equal(t, []string{models.ProviderPolymarket, models.ProviderKalshi}, params.Providers)
	assert.Equal(t, "all", params.Category)
	assert.Equal(t, "all", params.Tab)
	assert.Equal(t, models.Window1h, params.SortWindow)
	assert.Equal(t, "desc", params.Sort)
	assert.False(t, params.IncludeLowLiquidity)
	assert.Equal(t, float64(5000), params.MinLiquidity)
	assert.Equal(t, float64(15), params.MaxSpread)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 50, params.PageSize)
}

func TestParseMoversParams_ValidValues(t *testing.T) {
	params := paramsFor(t, "/movers?providers=opinion,kalshi&category=politics&tab=opaque&sortWindow=5m&sort=asc&includeLowLiquidity=true&minLiquidity=200&maxSpread=25&page=3&pageSize=20")

	assert.Equal(t, []string{models.ProviderOpinion, models.ProviderKalshi}, params.Providers)
	assert.Equal(t, "politics", params.Category)
	assert.Equal(t, "opaque", params.Tab)
	assert.Equal(t, models.Window5m, params.SortWindow)
	assert.Equal(t, "asc", params.Sort)
	assert.True(t, params.IncludeLowLiquidity)
	assert.Equal(t, float64(200), params.MinLiquidity)
	assert.Equal(t, float64(25), params.MaxSpread)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 20, params.PageSize)
}

func TestParseMoversParams_InvalidFallsBack(t *testing.T) {
	params := paramsFor(t, "/movers?providers=nasdaq,nyse&category=weather&tab=everything&sortWindow=3h&sort=sideways&page=-2&pageSize=7000")

	assert.Equal(t, []string{models.ProviderPolymarket, models.ProviderKalshi}, params.Providers)
	assert.Equal(t, "all", params.Category)
	assert.Equal(t, "all", params.Tab)
	assert.Equal(t, models.Window1h, params.SortWindow)
	assert.Equal(t, "desc", params.Sort)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 100, params.PageSize)
}

func TestParseMoversParams_PageSizeClamps(t *testing.T) {
	low := paramsFor(t, "/movers?pageSize=3")
	assert.Equal(t, 10, low.PageSize)

	high := paramsFor(t, "/movers?pageSize=500")
	assert.Equal(t, 100, high.PageSize)
}

func TestParseMoversParams_MixedProviderValidity(t *testing.T) {
	params := paramsFor(t, "/movers?providers=polymarket,nasdaq")
	assert.Equal(t, []string{models.ProviderPolymarket}, params.Providers)
}
