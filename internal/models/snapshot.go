/**
 * @description
 * Snapshot models: the persisted minute-stamped quote row and the
 * provider-facing record emitted by adapters before it is split into
 * market/outcome/snapshot rows.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Snapshot is one outcome quote at one minute tick.
// Maps to the 'snapshots' table. Market fields are cached on the row so the
// delta engine, classifier, and alerter never need a join back to markets;
// the read API joins markets only for the metadata bag.
type Snapshot struct {
	TsMinute           time.Time `gorm:"primaryKey;column:ts_minute" json:"ts_minute"`
	Provider           string    `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID           string    `gorm:"primaryKey;column:market_id" json:"market_id"`
	OutcomeID          string    `gorm:"primaryKey;column:outcome_id" json:"outcome_id"`
	Probability        float64   `gorm:"column:probability" json:"probability"`
	SpreadPP           *float64  `gorm:"column:spread_pp" json:"spread_pp"`
	Volume24hUSD       float64   `gorm:"column:volume_24h_usd" json:"volume_24h_usd"`
	LiquidityUSD       float64   `gorm:"column:liquidity_usd" json:"liquidity_usd"`
	MarketTitle        string    `gorm:"column:market_title" json:"market_title"`
	RawCategory        string    `gorm:"column:raw_category" json:"raw_category"`
	NormalizedCategory string    `gorm:"column:normalized_category" json:"normalized_category"`
	MarketStatus       string    `gorm:"column:market_status" json:"market_status"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

// OutcomeSnapshot is the uniform record every provider adapter emits.
// It carries the full market context so the store can upsert market, outcome,
// and snapshot rows from a single value.
type OutcomeSnapshot struct {
	TsMinute           time.Time
	Provider           string
	MarketID           string
	MarketTitle        string
	RawCategory        string
	NormalizedCategory string
	MarketStatus       string
	MarketMetadata     JSONMap
	OutcomeID          string
	OutcomeLabel       string
	Probability        float64
	SpreadPP           *float64
	Volume24hUSD       float64
	LiquidityUSD       float64
}

// ToRows splits the adapter record into its three persisted rows.
func (os OutcomeSnapshot) ToRows() (Market, Outcome, Snapshot) {
	market := Market{
		Provider:           os.Provider,
		MarketID:           os.MarketID,
		Title:              os.MarketTitle,
		RawCategory:        os.RawCategory,
		NormalizedCategory: os.NormalizedCategory,
		Status:             os.MarketStatus,
		Metadata:           os.MarketMetadata,
	}
	outcome := Outcome{
		Provider:  os.Provider,
		MarketID:  os.MarketID,
		OutcomeID: os.OutcomeID,
		Label:     os.OutcomeLabel,
	}
	snapshot := Snapshot{
		TsMinute:           os.TsMinute,
		Provider:           os.Provider,
		MarketID:           os.MarketID,
		OutcomeID:          os.OutcomeID,
		Probability:        os.Probability,
		SpreadPP:           os.SpreadPP,
		Volume24hUSD:       os.Volume24hUSD,
		LiquidityUSD:       os.LiquidityUSD,
		MarketTitle:        os.MarketTitle,
		RawCategory:        os.RawCategory,
		NormalizedCategory: os.NormalizedCategory,
		MarketStatus:       os.MarketStatus,
	}
	return market, outcome, snapshot
}
