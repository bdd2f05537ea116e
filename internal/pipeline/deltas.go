/**
 * @description
 * Delta engine: at the latest snapshot tick, computes per-outcome probability
 * changes (percentage points) against the most recent snapshot at or before
 * tick − window, for every window in W.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/marketpulse-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeltaEngine owns all writes to the deltas table.
type DeltaEngine struct {
	DB *gorm.DB
}

func NewDeltaEngine(db *gorm.DB) *DeltaEngine {
	return &DeltaEngine{DB: db}
}

type outcomeKey struct {
	Provider  string
	MarketID  string
	OutcomeID string
}

type probRow struct {
	Provider    string
	MarketID    string
	OutcomeID   string
	Probability float64
}

// ComputeDeltas writes one delta row per outcome present at the latest tick
// and returns the number of rows written.
func (e *DeltaEngine) ComputeDeltas(ctx context.Context) (int, error) {
	latest, err := e.latestTick(ctx)
	if err != nil || latest == nil {
		return 0, err
	}

	var current []probRow
	err = e.DB.WithContext(ctx).
		Raw(`SELECT provider, market_id, outcome_id, probability
		     FROM snapshots WHERE ts_minute = ?`, *latest).
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	if len(current) == 0 {
		return 0, nil
	}

	deltas := make(map[outcomeKey]*models.Delta, len(current))
	for _, row := range current {
		key := outcomeKey{row.Provider, row.MarketID, row.OutcomeID}
		deltas[key] = &models.Delta{
			TsMinute:  *latest,
			Provider:  row.Provider,
			MarketID:  row.MarketID,
			OutcomeID: row.OutcomeID,
		}
	}

	for _, window := range models.Windows {
		cutoff := latest.Add(-window.Duration())
		refs, err := e.referenceProbs(ctx, cutoff)
		if err != nil {
			return 0, err
		}

		for _, row := range current {
			key := outcomeKey{row.Provider, row.MarketID, row.OutcomeID}
			ref, ok := refs[key]
			if !ok {
				continue
			}
			value := RoundPP((row.Probability - ref) * 100)
			deltas[key].SetWindow(window, &value)
		}
	}

	rows := make([]models.Delta, 0, len(deltas))
	for _, d := range deltas {
		rows = append(rows, *d)
	}

	err = e.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ts_minute"}, {Name: "provider"}, {Name: "market_id"}, {Name: "outcome_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"delta_1m", "delta_5m", "delta_10m", "delta_30m",
			"delta_1h", "delta_6h", "delta_12h", "delta_24h",
		}),
	}).CreateInBatches(rows, 200).Error
	if err != nil {
		return 0, err
	}

	return len(rows), nil
}

// latestTick returns MAX(ts_minute) over snapshots, nil when empty.
func (e *DeltaEngine) latestTick(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	err := e.DB.WithContext(ctx).
		Raw(`SELECT MAX(ts_minute) FROM snapshots`).
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}
	return latest, nil
}

// referenceProbs returns, per outcome, the probability of the most recent
// snapshot at or before the cutoff. One scan serves every outcome.
func (e *DeltaEngine) referenceProbs(ctx context.Context, cutoff time.Time) (map[outcomeKey]float64, error) {
	var rows []probRow
	err := e.DB.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (provider, market_id, outcome_id)
		            provider, market_id, outcome_id, probability
		     FROM snapshots
		     WHERE ts_minute <= ?
		     ORDER BY provider, market_id, outcome_id, ts_minute DESC`, cutoff).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	refs := make(map[outcomeKey]float64, len(rows))
	for _, row := range rows {
		refs[outcomeKey{row.Provider, row.MarketID, row.OutcomeID}] = row.Probability
	}
	return refs, nil
}

// RoundPP rounds to 2 decimal percentage points, half away from zero.
func RoundPP(v float64) float64 {
	return math.Round(v*100) / 100
}
