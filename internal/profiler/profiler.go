/**
 * @description
 * Market profiling service: finds markets without a profile for the active
 * model version, runs the anchor cascade on each, and upserts profile rows.
 * Runs inside the pipeline cycle with a bounded batch so one giant listing
 * day cannot stall the tick.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package profiler

import (
	"context"

	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// profileBatchSize bounds markets profiled per cycle.
	profileBatchSize = 600

	// rulesOnlyVersion marks profiles produced without a loaded model, so
	// they are re-profiled once an artifact ships.
	rulesOnlyVersion = "rules-v1"
)

// Service profiles markets lazily, re-profiling when the model version moves.
type Service struct {
	DB     *gorm.DB
	Loader *ModelLoader
}

func NewService(db *gorm.DB, loader *ModelLoader) *Service {
	return &Service{DB: db, Loader: loader}
}

// ActiveModelVersion is the version stamped on new profiles.
func (s *Service) ActiveModelVersion() string {
	if model := s.Loader.Get(); model != nil {
		return model.ModelVersion
	}
	return rulesOnlyVersion
}

// ProfilePending profiles up to one batch of unprofiled (or stale-versioned)
// markets and returns how many rows were written.
func (s *Service) ProfilePending(ctx context.Context) (int, error) {
	model := s.Loader.Get()
	version := rulesOnlyVersion
	if model != nil {
		version = model.ModelVersion
	}

	var markets []models.Market
	err := s.DB.WithContext(ctx).
		Raw(`SELECT m.*
		     FROM markets m
		     LEFT JOIN market_profiles p
		       ON p.provider = m.provider AND p.market_id = m.market_id
		     WHERE p.provider IS NULL OR p.model_version <> ?
		     LIMIT ?`, version, profileBatchSize).
		Scan(&markets).Error
	if err != nil {
		return 0, err
	}

	written := 0
	for _, market := range markets {
		doc := docFromMarket(market)
		anchorType, confidence := ClassifyAnchor(doc, model)

		profile := models.MarketProfile{
			Provider:        market.Provider,
			MarketID:        market.MarketID,
			AnchorType:      anchorType,
			InsiderPossible: models.InsiderPossible(anchorType),
			Confidence:      confidence,
			ModelVersion:    version,
		}

		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider"}, {Name: "market_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"anchor_type",
				"insider_possible",
				"confidence",
				"model_version",
				"updated_at",
			}),
		}).Create(&profile).Error
		if err != nil {
			logger.Error("profiler: upsert failed for %s/%s: %v", market.Provider, market.MarketID, err)
			continue
		}
		written++
	}

	return written, nil
}

// docFromMarket assembles the cascade input, pulling the pre-combo title and
// leg texts out of the market metadata when present.
func docFromMarket(market models.Market) ProfileDoc {
	doc := ProfileDoc{
		Title:              market.Title,
		NormalizedCategory: market.NormalizedCategory,
	}

	if original, ok := market.Metadata["original_title"].(string); ok {
		doc.OriginalTitle = original
	}
	if rawLegs, ok := market.Metadata["legs"].([]interface{}); ok {
		for _, rawLeg := range rawLegs {
			if leg, ok := rawLeg.(string); ok {
				doc.Legs = append(doc.Legs, leg)
			}
		}
	}

	return doc
}
