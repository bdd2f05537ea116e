/**
 * @description
 * Market and Outcome database models.
 * A market is identified by (provider, market_id); outcomes hang off it and
 * cascade on market removal.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Normalized market categories shared across providers.
const (
	CategoryCrypto   = "crypto"
	CategoryPolitics = "politics"
	CategoryPolicy   = "policy"
	CategorySports   = "sports"
	CategoryMacro    = "macro"
	CategoryOther    = "other"
)

// Provider identifiers.
const (
	ProviderPolymarket = "polymarket"
	ProviderKalshi     = "kalshi"
	ProviderOpinion    = "opinion"
)

// Market represents one prediction market from one provider.
// Maps to the 'markets' table.
type Market struct {
	Provider           string    `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID           string    `gorm:"primaryKey;column:market_id" json:"market_id"`
	Title              string    `gorm:"column:title" json:"title"`
	RawCategory        string    `gorm:"column:raw_category" json:"raw_category"`
	NormalizedCategory string    `gorm:"column:normalized_category" json:"normalized_category"`
	Status             string    `gorm:"column:status" json:"status"`
	Metadata           JSONMap   `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Market) TableName() string {
	return "markets"
}

// Outcome represents a single tradeable outcome within a market.
// Maps to the 'outcomes' table.
type Outcome struct {
	Provider  string    `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID  string    `gorm:"primaryKey;column:market_id" json:"market_id"`
	OutcomeID string    `gorm:"primaryKey;column:outcome_id" json:"outcome_id"`
	Label     string    `gorm:"column:label" json:"label"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Outcome) TableName() string {
	return "outcomes"
}
