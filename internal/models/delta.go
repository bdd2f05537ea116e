/**
 * @description
 * Delta database model: per-outcome probability changes (in percentage
 * points) over every window in W, computed at one minute tick.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import "time"

// Delta holds one row per outcome per tick. A nil window value means no
// snapshot existed at or before tick − window.
// Maps to the 'deltas' table.
type Delta struct {
	TsMinute  time.Time `gorm:"primaryKey;column:ts_minute" json:"ts_minute"`
	Provider  string    `gorm:"primaryKey;column:provider" json:"provider"`
	MarketID  string    `gorm:"primaryKey;column:market_id" json:"market_id"`
	OutcomeID string    `gorm:"primaryKey;column:outcome_id" json:"outcome_id"`
	Delta1m   *float64  `gorm:"column:delta_1m" json:"delta_1m"`
	Delta5m   *float64  `gorm:"column:delta_5m" json:"delta_5m"`
	Delta10m  *float64  `gorm:"column:delta_10m" json:"delta_10m"`
	Delta30m  *float64  `gorm:"column:delta_30m" json:"delta_30m"`
	Delta1h   *float64  `gorm:"column:delta_1h" json:"delta_1h"`
	Delta6h   *float64  `gorm:"column:delta_6h" json:"delta_6h"`
	Delta12h  *float64  `gorm:"column:delta_12h" json:"delta_12h"`
	Delta24h  *float64  `gorm:"column:delta_24h" json:"delta_24h"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Delta) TableName() string {
	return "deltas"
}

// ByWindow returns the delta value for the given window, nil when missing.
func (d *Delta) ByWindow(w Window) *float64 {
	switch w {
	case Window1m:
		return d.Delta1m
	case Window5m:
		return d.Delta5m
	case Window10m:
		return d.Delta10m
	case Window30m:
		return d.Delta30m
	case Window1h:
		return d.Delta1h
	case Window6h:
		return d.Delta6h
	case Window12h:
		return d.Delta12h
	case Window24h:
		return d.Delta24h
	}
	return nil
}

// SetWindow assigns the delta value for the given window.
func (d *Delta) SetWindow(w Window, v *float64) {
	switch w {
	case Window1m:
		d.Delta1m = v
	case Window5m:
		d.Delta5m = v
	case Window10m:
		d.Delta10m = v
	case Window30m:
		d.Delta30m = v
	case Window1h:
		d.Delta1h = v
	case Window6h:
		d.Delta6h = v
	case Window12h:
		d.Delta12h = v
	case Window24h:
		d.Delta24h = v
	}
}

// WindowMap returns the full {window → delta_pp | null} map for API payloads.
func (d *Delta) WindowMap() map[Window]*float64 {
	out := make(map[Window]*float64, len(Windows))
	for _, w := range Windows {
		out[w] = d.ByWindow(w)
	}
	return out
}
