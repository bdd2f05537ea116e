/**
 * @description
 * Classification database model: per-outcome opaque/exogenous scores and the
 * resulting label, written once per tick by the classifier.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Classification labels.
const (
	LabelOpaqueInfoSensitive = "opaque_info_sensitive"
	LabelExogenousArbitrage  = "exogenous_arbitrage"
	LabelUnclear             = "unclear"

)

// Classification maps to the 'classifications' table.
// Scores are clamped to [0,100]; reason tags preserve rule firing order.
type Classification struct {
	TsMinute       time.Time   `gorm:"primaryKey;column:ts_minute" json:"ts_minute"`
	Provider       string      `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID       string      `gorm:"primaryKey;column:market_id" json:"market_id"`
	OutcomeID      string      `gorm:"primaryKey;column:outcome_id" json:"outcome_id"`
	OpaqueScore    float64     `gorm:"column:opaque_score" json:"opaque_score"`
	ExogenousScore float64     `gorm:"column:exogenous_score" json:"exogenous_score"`
	Label          string      `gorm:"column:label" json:"label"`
	ReasonTags     StringArray `gorm:"column:reason_tags;type:text[]" json:"reason_tags"`
	ModelVersion   string      `gorm:"column:model_version" json:"model_version"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Classification) TableName() string {
	return "classifications"
}
