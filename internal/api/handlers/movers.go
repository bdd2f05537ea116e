/**
 * @description
 * Movers API handler.
 * Parses and validates the dashboard's query parameters (falling back to
 * safe defaults on anything invalid) and serves the grouped movers page.
 * Internal failures map to one opaque 5xx body.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/services"
)

const (
	defaultMinLiquidity = 5000
	defaultMaxSpread    = 15

	defaultPageSize = 50
	minPageSize     = 10
	maxPageSize     = 100
)

var defaultProviders = []string{models.ProviderPolymarket, models.ProviderKalshi}

var validProviders = map[string]bool{
	models.ProviderPolymarket: true,
	models.ProviderKalshi:     true,
	models.ProviderOpinion:    true,
}

var validCategories = map[string]bool{
	models.CategoryCrypto:   true,
	models.CategoryPolitics: true,
	models.CategoryPolicy:   true,
	models.CategorySports:   true,
	models.CategoryMacro:    true,
	models.CategoryOther:    true,
}

type MoversHandler struct {
	Service *services.MoversService
}

func NewMoversHandler(service *services.MoversService) *MoversHandler {
	return &MoversHandler{Service: service}
}

// GetMovers returns the latest classified movers grouped by market
// GET /api/v1/movers
func (h *MoversHandler) GetMovers(c *fiber.Ctx) error {
	params := parseMoversParams(c)

	response, err := h.Service.GetMovers(c.Context(), params)
	if err != nil {
		logger.Error("movers: query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load movers.",
		})
	}

	return c.JSON(response)
}

// parseMoversParams never rejects a request: every invalid value falls back
// to its default so the dashboard keeps rendering. An out-of-range pageSize
// is clamped to the nearest bound of [10,100] instead.
func parseMoversParams(c *fiber.Ctx) services.MoversParams {
	params := services.MoversParams{
		Providers:           parseProviders(c.Query("providers")),
		Category:            "all",
		Tab:                 "all",
		SortWindow:          models.Window1h,
		Sort:                "desc",
		IncludeLowLiquidity: c.QueryBool("includeLowLiquidity", false),
		MinLiquidity:        c.QueryFloat("minLiquidity", defaultMinLiquidity),
		MaxSpread:           c.QueryFloat("maxSpread", defaultMaxSpread),
		Page:                c.QueryInt("page", 1),
		PageSize:            c.QueryInt("pageSize", defaultPageSize),
	}

	if category := strings.ToLower(c.Query("category")); validCategories[category] {
		params.Category = category
	}

	switch strings.ToLower(c.Query("tab")) {
	case "opaque":
		params.Tab = "opaque"
	case "exogenous":
		params.Tab = "exogenous"
	}

	if sortWindow := c.Query("sortWindow"); models.ValidWindow(sortWindow) {
		params.SortWindow = models.Window(sortWindow)
	}

	if strings.ToLower(c.Query("sort")) == "asc" {
		params.Sort = "asc"
	}

	if params.MinLiquidity < 0 {
		params.MinLiquidity = defaultMinLiquidity
	}
	if params.MaxSpread < 0 {
		params.MaxSpread = defaultMaxSpread
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < minPageSize {
		params.PageSize = minPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	return params
}

func parseProviders(raw string) []string {
	var providers []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if validProviders[name] {
			providers = append(providers, name)
		}
	}
	if len(providers) == 0 {
		return append([]string{}, defaultProviders...)
	}
	return providers
}
