/**
 * @description
 * Alerter: selects opaque-labeled outcomes at the latest classification tick,
 * picks each one's best triggered window against the static threshold table,
 * deduplicates by signature + cooldown, and dispatches plain-text messages.
 * Alert state is written only after a successful send, so failures retry on
 * the next cycle.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/redis/go-redis/v9: best-effort alert event publishing
 * - backend/internal/models
 */

package alerter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertChannel is the Redis pub/sub channel carrying alert events for
// dashboard consumers.
const AlertChannel = "alerts:events"

// selectionCap bounds candidates examined per cycle.
const selectionCap = 500

// Thresholds is the static per-window trigger table in absolute pp.
var Thresholds = map[models.Window]float64{
	models.Window1m:  6,
	models.Window5m:  8,
	models.Window10m: 10,
	models.Window30m: 14,
	models.Window1h:  18,
	models.Window6h:  24,
	models.Window12h: 30,
	models.Window24h: 38,
}

// Alerter owns all writes to alert_states.
type Alerter struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Dispatcher Dispatcher

	MinLiquidityUSD float64
	MaxSpreadPP     float64
	Cooldown        time.Duration

	now func() time.Time
}

func New(db *gorm.DB, rdb *redis.Client, dispatcher Dispatcher, minLiquidity, maxSpread float64, cooldown time.Duration) *Alerter {
	return &Alerter{
		DB:              db,
		Redis:           rdb,
		Dispatcher:      dispatcher,
		MinLiquidityUSD: minLiquidity,
		MaxSpreadPP:     maxSpread,
		Cooldown:        cooldown,
		now:             time.Now,
	}
}

// TriggeredWindow is the best-scoring window for one candidate.
type TriggeredWindow struct {
	Window  models.Window
	DeltaPP float64
	Score   float64
}

// BestTriggeredWindow scans every non-null window delta, scores it against
// its threshold, and returns the highest-scoring window with score ≥ 1.
func BestTriggeredWindow(delta *models.Delta) (TriggeredWindow, bool) {
	var best TriggeredWindow
	found := false

	for _, window := range models.Windows {
		value := delta.ByWindow(window)
		if value == nil {
			continue
		}
		threshold := Thresholds[window]
		if threshold <= 0 {
			continue
		}
		score := math.Abs(*value) / threshold
		if score < 1 {
			continue
		}
		if !found || score > best.Score {
			best = TriggeredWindow{Window: window, DeltaPP: *value, Score: score}
			found = true
		}
	}

	return best, found
}

type candidateRow struct {
	TsMinute     time.Time
	Provider     string
	MarketID     string
	OutcomeID    string
	OutcomeLabel string
	MarketTitle  string
	Probability  float64
	Label        string
	ReasonTags   models.StringArray
	Delta1m      *float64 `gorm:"column:delta_1m"`
	Delta5m      *float64 `gorm:"column:delta_5m"`
	Delta10m     *float64 `gorm:"column:delta_10m"`
	Delta30m     *float64 `gorm:"column:delta_30m"`
	Delta1h      *float64 `gorm:"column:delta_1h"`
	Delta6h      *float64 `gorm:"column:delta_6h"`
	Delta12h     *float64 `gorm:"column:delta_12h"`
	Delta24h     *float64 `gorm:"column:delta_24h"`
}

// RunAlerts evaluates the latest tick and returns the number of messages sent.
func (a *Alerter) RunAlerts(ctx context.Context) (int, error) {
	var latest *time.Time
	err := a.DB.WithContext(ctx).
		Raw(`SELECT MAX(ts_minute) FROM classifications`).
		Scan(&latest).Error
	if err != nil || latest == nil {
		return 0, err
	}

	var candidates []candidateRow
	err = a.DB.WithContext(ctx).
		Raw(`SELECT c.ts_minute, c.provider, c.market_id, c.outcome_id,
		            o.label AS outcome_label,
		            s.market_title, s.probability,
		            c.label, c.reason_tags,
		            d.delta_1m, d.delta_5m, d.delta_10m, d.delta_30m,
		            d.delta_1h, d.delta_6h, d.delta_12h, d.delta_24h
		     FROM classifications c
		     JOIN snapshots s
		       ON s.ts_minute = c.ts_minute AND s.provider = c.provider
		      AND s.market_id = c.market_id AND s.outcome_id = c.outcome_id
		     JOIN deltas d
		       ON d.ts_minute = c.ts_minute AND d.provider = c.provider
		      AND d.market_id = c.market_id AND d.outcome_id = c.outcome_id
		     LEFT JOIN outcomes o
		       ON o.provider = c.provider AND o.market_id = c.market_id
		      AND o.outcome_id = c.outcome_id
		     WHERE c.ts_minute = ?
		       AND c.label = ?
		       AND s.liquidity_usd >= ?
		       AND s.spread_pp <= ?
		     ORDER BY ABS(d.delta_1m) DESC NULLS LAST
		     LIMIT ?`,
			*latest, models.LabelOpaqueInfoSensitive,
			a.MinLiquidityUSD, a.MaxSpreadPP, selectionCap).
		Scan(&candidates).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, cand := range candidates {
		delta := models.Delta{
			Delta1m: cand.Delta1m, Delta5m: cand.Delta5m,
			Delta10m: cand.Delta10m, Delta30m: cand.Delta30m,
			Delta1h: cand.Delta1h, Delta6h: cand.Delta6h,
			Delta12h: cand.Delta12h, Delta24h: cand.Delta24h,
		}

		best, ok := BestTriggeredWindow(&delta)
		if !ok {
			continue
		}

		direction := models.DirectionUp
		if best.DeltaPP < 0 {
			direction = models.DirectionDown
		}

		signature := models.AlertSignature(cand.Provider, cand.MarketID, cand.OutcomeID, best.Window, direction)
		onCooldown, err := a.onCooldown(ctx, signature)
		if err != nil {
			logger.Error("alerter: cooldown check failed for %s: %v", signature, err)
			continue
		}
		if onCooldown {
			continue
		}

		message := FormatMessage(cand.Provider, cand.MarketTitle, cand.OutcomeLabel,
			cand.Probability, best.Window, best.DeltaPP, direction,
			cand.Label, cand.ReasonTags, cand.TsMinute)

		if a.Dispatcher != nil {
			if err := a.Dispatcher.Send(ctx, message); err != nil {
				// State stays unwritten; this signature retries next cycle.
				logger.Error("alerter: send failed for %s: %v", signature, err)
				continue
			}
		} else {
			logger.Info("alerter (no transport): %s", strings.ReplaceAll(message, "\n", " | "))
		}

		if err := a.markSent(ctx, signature); err != nil {
			logger.Error("alerter: failed to record alert state for %s: %v", signature, err)
		}

		a.publishEvent(ctx, cand, best, direction)
		sent++
	}

	return sent, nil
}

func (a *Alerter) onCooldown(ctx context.Context, signature string) (bool, error) {
	var state models.AlertState
	err := a.DB.WithContext(ctx).
		Where("signature = ?", signature).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return CooldownActive(state.LastSentAt, a.now(), a.Cooldown), nil
}

// CooldownActive reports whether a signature last sent at lastSentAt is still
// cooling down at now.
func CooldownActive(lastSentAt, now time.Time, cooldown time.Duration) bool {
	return now.Sub(lastSentAt) < cooldown
}

func (a *Alerter) markSent(ctx context.Context, signature string) error {
	state := models.AlertState{
		Signature:  signature,
		LastSentAt: a.now().UTC(),
	}
	return a.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_sent_at"}),
	}).Create(&state).Error
}

// publishEvent pushes the alert onto the Redis channel; purely best-effort.
func (a *Alerter) publishEvent(ctx context.Context, cand candidateRow, best TriggeredWindow, direction string) {
	if a.Redis == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"provider":     cand.Provider,
		"market_id":    cand.MarketID,
		"outcome_id":   cand.OutcomeID,
		"market_title": cand.MarketTitle,
		"window":       string(best.Window),
		"delta_pp":     best.DeltaPP,
		"direction":    direction,
		"ts_minute":    cand.TsMinute.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	if err := a.Redis.Publish(ctx, AlertChannel, payload).Err(); err != nil {
		logger.Error("alerter: failed to publish alert event: %v", err)
	}
}

// FormatMessage renders the plain-text multi-line alert body.
func FormatMessage(provider, marketTitle, outcomeLabel string, probability float64,
	window models.Window, deltaPP float64, direction, label string,
	reasonTags []string, tsMinute time.Time) string {

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Opaque move detected\n")
	fmt.Fprintf(&b, "Market: %s\n", marketTitle)
	fmt.Fprintf(&b, "Provider: %s\n", provider)
	if outcomeLabel != "" {
		fmt.Fprintf(&b, "Outcome: %s\n", outcomeLabel)
	}
	fmt.Fprintf(&b, "Probability: %.1f%%\n", probability*100)
	fmt.Fprintf(&b, "Move: %+.2f pp over %s (%s)\n", deltaPP, window, direction)
	fmt.Fprintf(&b, "Label: %s\n", label)
	if len(reasonTags) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(reasonTags, ", "))
	}
	fmt.Fprintf(&b, "Tick: %s", tsMinute.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}
