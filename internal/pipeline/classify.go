/**
 * @description
 * Outcome classifier: scores every outcome at the latest delta tick on
 * opaque-information vs exogenous-arbitrage axes and writes one
 * classification row per outcome. The scoring itself is a pure function over
 * assembled features so the rule table is testable without a database.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 * - backend/internal/profiler: shared context detectors
 * - backend/internal/signals
 */

package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/profiler"
	"github.com/marketpulse-project/backend/internal/signals"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// classifierVersion stamps classification rows; bump when the rule table moves.
const classifierVersion = "v1"

// Base scores before any rule fires.
const (
	baseOpaque    = 20.0
	baseExogenous = 10.0
)

// Confidence defaults. A present profile with no confidence reads as 0.7;
// the exogenous abrupt-move branch floors confidence at 0.9 instead.
const (
	defaultProfileConfidence = 0.7
	abruptMoveMinConfidence  = 0.9
)

// Classifier owns all writes to the classifications table.
type Classifier struct {
	DB *gorm.DB
}

func NewClassifier(db *gorm.DB) *Classifier {
	return &Classifier{DB: db}
}

// Features is everything the rule table sees for one outcome.
type Features struct {
	HasProfile        bool
	AnchorType        string
	ProfileConfidence *float64

	NormalizedCategory string
	MarketTitle        string

	Delta1m      *float64
	Volume24hUSD float64
	SpreadPP     *float64

	Btc1mPct *float64
	Eth1mPct *float64
}

// Result is the scored outcome.
type Result struct {
	OpaqueScore    float64
	ExogenousScore float64
	Label          string
	ReasonTags     []string
}

// Score applies the additive rule table, clamps both axes to [0,100], and
// labels the outcome.
func Score(f Features) Result {
	opaque := baseOpaque
	exog := baseExogenous
	var tags []string

	conf := defaultProfileConfidence
	if f.ProfileConfidence != nil {
		conf = clampUnit(*f.ProfileConfidence)
	}

	anchor := f.AnchorType
	if !f.HasProfile {
		anchor = ""
	}

	switch anchor {
	case models.AnchorLiveScore:
		exog += 60 * conf
		tags = append(tags, "anchor_live_score")
	case models.AnchorSpotPrice:
		exog += 55 * conf
		tags = append(tags, "anchor_spot_price")
	case models.AnchorSportsNews:
		opaque += 45 * conf
		tags = append(tags, "anchor_sports_team_news")
	case models.AnchorCryptoNews:
		opaque += 45 * conf
		tags = append(tags, "anchor_crypto_news")
	case models.AnchorMacroRelease:
		opaque += 35 * conf
		tags = append(tags, "anchor_macro_release")
	case models.AnchorPolicy:
		opaque += 30 * conf
		tags = append(tags, "anchor_policy_decision")
	}

	if anchor == "" || anchor == models.AnchorOtherUnknown {
		text := profiler.NormalizeText(f.MarketTitle)
		if profiler.SportsContext(f.NormalizedCategory, text) {
			exog += 15
			tags = append(tags, "sports_related")
		}
		if profiler.CryptoContext(f.NormalizedCategory, text) {
			exog += 10
			tags = append(tags, "crypto_related")
		}
	}

	if anchor == models.AnchorSpotPrice && maxAbsPct(f.Btc1mPct, f.Eth1mPct) >= 0.8 {
		exog += 18
		tags = append(tags, "spot_price_shock")
	}

	switch f.NormalizedCategory {
	case models.CategoryPolitics, models.CategoryPolicy, models.CategoryMacro, models.CategoryOther:
		opaque += 20
		tags = append(tags, "opaque_info_prone_category")
	}

	absDelta1m := 0.0
	if f.Delta1m != nil {
		absDelta1m = math.Abs(*f.Delta1m)
	}

	if f.Volume24hUSD >= 10000 && absDelta1m >= 4 {
		opaque += 20
		tags = append(tags, "meaningful_size_move")
	}

	if f.SpreadPP != nil && *f.SpreadPP <= 8 {
		opaque += 10
		tags = append(tags, "tight_spread")
	}

	if absDelta1m >= 15 {
		if anchor == models.AnchorLiveScore || anchor == models.AnchorSpotPrice {
			exog += 12 * math.Max(conf, abruptMoveMinConfidence)
		} else {
			opaque += 10
		}
		tags = append(tags, "abrupt_micro_move")
	}

	opaque = clampScore(opaque)
	exog = clampScore(exog)

	label := models.LabelUnclear
	if opaque >= exog && opaque >= 50 {
		label = models.LabelOpaqueInfoSensitive
	} else if exog >= 50 {
		label = models.LabelExogenousArbitrage
	}

	return Result{
		OpaqueScore:    opaque,
		ExogenousScore: exog,
		Label:          label,
		ReasonTags:     tags,
	}
}

type classifyRow struct {
	TsMinute           time.Time
	Provider           string
	MarketID           string
	OutcomeID          string
	Delta1m            *float64 `gorm:"column:delta_1m"`
	Probability        float64
	SpreadPP           *float64 `gorm:"column:spread_pp"`
	Volume24hUSD       float64  `gorm:"column:volume_24h_usd"`
	NormalizedCategory string
	MarketTitle        string
	AnchorType         *string
	Confidence         *float64
}

// ClassifyLatest classifies every outcome at the latest delta tick and
// returns the number of rows written.
func (c *Classifier) ClassifyLatest(ctx context.Context, spot signals.SpotChanges) (int, error) {
	var latest *time.Time
	err := c.DB.WithContext(ctx).
		Raw(`SELECT MAX(ts_minute) FROM deltas`).
		Scan(&latest).Error
	if err != nil || latest == nil {
		return 0, err
	}

	var rows []classifyRow
	err = c.DB.WithContext(ctx).
		Raw(`SELECT d.ts_minute, d.provider, d.market_id, d.outcome_id, d.delta_1m,
		            s.probability, s.spread_pp, s.volume_24h_usd,
		            s.normalized_category, s.market_title,
		            p.anchor_type, p.confidence
		     FROM deltas d
		     JOIN snapshots s
		       ON s.ts_minute = d.ts_minute AND s.provider = d.provider
		      AND s.market_id = d.market_id AND s.outcome_id = d.outcome_id
		     LEFT JOIN market_profiles p
		       ON p.provider = d.provider AND p.market_id = d.market_id
		     WHERE d.ts_minute = ?`, *latest).
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	classifications := make([]models.Classification, 0, len(rows))
	for _, row := range rows {
		features := Features{
			HasProfile:         row.AnchorType != nil,
			NormalizedCategory: row.NormalizedCategory,
			MarketTitle:        row.MarketTitle,
			Delta1m:            row.Delta1m,
			Volume24hUSD:       row.Volume24hUSD,
			SpreadPP:           row.SpreadPP,
			Btc1mPct:           spot.Btc1mPct,
			Eth1mPct:           spot.Eth1mPct,
		}
		if row.AnchorType != nil {
			features.AnchorType = *row.AnchorType
			features.ProfileConfidence = row.Confidence
		}

		result := Score(features)
		classifications = append(classifications, models.Classification{
			TsMinute:       row.TsMinute,
			Provider:       row.Provider,
			MarketID:       row.MarketID,
			OutcomeID:      row.OutcomeID,
			OpaqueScore:    result.OpaqueScore,
			ExogenousScore: result.ExogenousScore,
			Label:          result.Label,
			ReasonTags:     result.ReasonTags,
			ModelVersion:   classifierVersion,
		})
	}

	err = c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ts_minute"}, {Name: "provider"}, {Name: "market_id"}, {Name: "outcome_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"opaque_score",
			"exogenous_score",
			"label",
			"reason_tags",
			"model_version",
		}),
	}).CreateInBatches(classifications, 200).Error
	if err != nil {
		return 0, err
	}

	return len(classifications), nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxAbsPct(values ...*float64) float64 {
	max := 0.0
	for _, v := range values {
		if v == nil {
			continue
		}
		if abs := math.Abs(*v); abs > max {
			max = abs
		}
	}
	return max
}
