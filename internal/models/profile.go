/**
 * @description
 * MarketProfile database model: what externally drives a market's
 * probability, produced by the profiler's rule cascade + anchor classifier.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Anchor types. Spot and live-score anchored markets track a fast public
// reference, so insider information cannot be the mover.
const (
	AnchorSpotPrice    = "spot_price_anchored"
	AnchorLiveScore    = "live_score_anchored"
	AnchorMacroRelease = "scheduled_macro_release"
	AnchorPolicy       = "policy_regulatory_decision"
	AnchorSportsNews   = "sports_team_news"
	AnchorCryptoNews   = "crypto_news_security"
	AnchorOtherUnknown = "other_unknown"
)

// AnchorTypes is the fixed class set, in the order the classifier indexes it.
var AnchorTypes = []string{
	AnchorSpotPrice,
	AnchorLiveScore,
	AnchorMacroRelease,
	AnchorPolicy,
	AnchorSportsNews,
	AnchorCryptoNews,
	AnchorOtherUnknown,
}

// InsiderPossible reports whether private information could plausibly drive
// a market with the given anchor type.
func InsiderPossible(anchorType string) bool {
	return anchorType != AnchorSpotPrice && anchorType != AnchorLiveScore
}

// MarketProfile maps to the 'market_profiles' table.
type MarketProfile struct {
	Provider        string    `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID        string    `gorm:"primaryKey;column:market_id" json:"market_id"`
	AnchorType      string    `gorm:"column:anchor_type" json:"anchor_type"`
	InsiderPossible bool      `gorm:"column:insider_possible" json:"insider_possible"`
	Confidence      float64   `gorm:"column:confidence" json:"confidence"`
	ModelVersion    string    `gorm:"column:model_version" json:"model_version"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MarketProfile) TableName() string {
	return "market_profiles"
}
