/**
 * @description
 * AlertState database model: last successful send per alert signature,
 * used by the alerter for cooldown deduplication.
 *
 * @dependencies
 * - gorm.io/gorm (via struct tags)
 */

package models

import (
	"fmt"
	"time"
)

// Alert directions.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"

)

// AlertState maps to the 'alert_states' table. Written only after a
// successful chat send, so a failed send naturally retries next cycle.
type AlertState struct {
	Signature  string    `gorm:"primaryKey;column:signature" json:"signature"`
	LastSentAt time.Time `gorm:"column:last_sent_at" json:"last_sent_at"`
}

func (AlertState) TableName() string {
	return "alert_states"
}

// AlertSignature builds the dedup key for one outcome/window/direction move.
func AlertSignature(provider, marketID, outcomeID string, window Window, direction string) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", provider, marketID, outcomeID, window, direction)
}
