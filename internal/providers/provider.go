/**
 * @description
 * Provider adapter contract plus the quote-normalization helpers every
 * adapter shares. Each provider turns its own HTTP+JSON shape into uniform
 * OutcomeSnapshot records stamped with the cycle tick.
 *
 * @dependencies
 * - backend/internal/models
 */

package providers

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/marketpulse-project/backend/internal/models"
)

// Provider is one external prediction-market source.
// A disabled provider (missing credentials or feature flag) is skipped by the
// scheduler without error.
type Provider interface {
	Name() string
	Enabled() bool
	FetchSnapshots(ctx context.Context, tsMinute time.Time) ([]models.OutcomeSnapshot, error)
}

// NormalizeProbability canonicalizes a raw quote into [0,1].
// Values above 1 are treated as percents.
func NormalizeProbability(raw float64) float64 {
	if raw > 1 {
		raw = raw / 100
	}
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// SpreadPP returns |ask − bid| in percentage points. Both legs must be
// fractional probabilities.
func SpreadPP(bid, ask float64) *float64 {
	spread := math.Abs(ask-bid) * 100
	return &spread
}

// ParseFloat pulls a float out of a defensively-decoded JSON value.
// Providers deliver numerics as numbers or strings interchangeably.
func ParseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f
	default:
		return 0
	}
}

// ParseString pulls a string out of a defensively-decoded JSON value.
func ParseString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// NormalizeCategory maps a provider's raw category (and the market title as a
// fallback signal) onto the shared category set.
func NormalizeCategory(rawCategory, title string) string {
	c := strings.ToLower(strings.TrimSpace(rawCategory))
	t := strings.ToLower(title)

	switch {
	case containsAny(c, "crypto", "cryptocurrency", "blockchain", "web3", "digital assets"):
		return models.CategoryCrypto
	case containsAny(c, "politic", "election", "geopolitic", "world affairs"):
		return models.CategoryPolitics
	case containsAny(c, "policy", "regulat", "legislat", "law", "court", "government shutdown"):
		return models.CategoryPolicy
	case containsAny(c, "sport", "nba", "nfl", "mlb", "nhl", "soccer", "football", "esport", "tennis", "ufc"):
		return models.CategorySports
	case containsAny(c, "macro", "econom", "finance", "financial", "fed", "inflation", "rates", "companies"):
		return models.CategoryMacro
	}

	// Raw category missing or unmapped: fall back to the title.
	switch {
	case containsAny(t, "bitcoin", "btc", "ethereum", "eth ", "solana", "crypto", "token", "stablecoin"):
		return models.CategoryCrypto
	case containsAny(t, "election", "president", "senate", "parliament", "prime minister", "mayor"):
		return models.CategoryPolitics
	case containsAny(t, "fed ", "cpi", "gdp", "inflation", "interest rate", "unemployment", "recession"):
		return models.CategoryMacro
	}

	return models.CategoryOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
