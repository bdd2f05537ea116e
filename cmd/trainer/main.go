/**
 * @description
 * Offline trainer for the anchor classifier.
 * Reads labeled markets either from a JSONL file or from high-confidence
 * rule-derived profiles already in Postgres, fits the multinomial model,
 * prints the holdout report, and writes the versioned JSON artifact.
 *
 * Usage:
 *   trainer -out anchor_model.json [-labels labels.jsonl] [-version nb-2026-08]
 *
 * @dependencies
 * - backend/internal/profiler
 * - backend/internal/config + db (DB-sourced labels)
 */

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/db"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/profiler"
)

// minRuleConfidence filters DB-sourced labels to profiles at or above the 0.8
// ladder confidence: hard-rule hits, the macro/crypto-news/team-news ladder
// rungs, and equally confident model predictions. Policy-rung (0.65) and
// other_unknown profiles never qualify as training signal.
const minRuleConfidence = 0.8

type labeledLine struct {
	Provider   string `json:"provider"`
	MarketID   string `json:"market_id"`
	Text       string `json:"text"`
	AnchorType string `json:"anchor_type"`
}

func main() {
	labelsPath := flag.String("labels", "", "JSONL file of labeled markets (default: pull from DB)")
	outPath := flag.String("out", "anchor_model.json", "output artifact path")
	version := flag.String("version", "", "model version (default: nb-<date>)")
	flag.Parse()

	modelVersion := *version
	if modelVersion == "" {
		modelVersion = "nb-" + time.Now().UTC().Format("2006-01-02")
	}

	var samples []profiler.TrainingSample
	var err error
	if *labelsPath != "" {
		samples, err = loadLabelsFile(*labelsPath)
	} else {
		samples, err = loadLabelsFromDB()
	}
	if err != nil {
		logger.Fatal("Failed to load training samples: %v", err)
	}
	logger.Info("Loaded %d labeled markets", len(samples))

	opts := profiler.DefaultTrainOptions()
	opts.ModelVersion = modelVersion
	opts.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	model, report, err := profiler.Train(samples, models.AnchorTypes, opts)
	if err != nil {
		logger.Fatal("Training failed: %v", err)
	}

	logger.Info("Trained %s: %d train docs, %d test docs, vocab %d",
		model.ModelVersion, report.TrainDocs, report.TestDocs, report.VocabSize)
	if report.TestDocs > 0 {
		logger.Info("Holdout accuracy: %.1f%% (%d/%d)",
			report.HoldoutAccuracy*100, report.HoldoutCorrect, report.TestDocs)
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode model: %v", err)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		logger.Fatal("Failed to write %s: %v", *outPath, err)
	}

	logger.Info("✅ Wrote %s", *outPath)
}

func loadLabelsFile(path string) ([]profiler.TrainingSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []profiler.TrainingSample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var line labeledLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples = append(samples, profiler.TrainingSample{
			Provider:   line.Provider,
			MarketID:   line.MarketID,
			Text:       profiler.NormalizeText(line.Text),
			AnchorType: line.AnchorType,
		})
	}
	return samples, scanner.Err()
}

// loadLabelsFromDB bootstraps from rule-derived profiles: hard-rule and
// ladder hits carry enough precision to seed the classifier.
func loadLabelsFromDB() ([]profiler.TrainingSample, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		return nil, err
	}
	defer db.ClosePostgres(pgDB)

	type row struct {
		Provider   string
		MarketID   string
		Title      string
		AnchorType string
	}
	var rows []row
	err = pgDB.Raw(`SELECT p.provider, p.market_id, m.title, p.anchor_type
	                FROM market_profiles p
	                JOIN markets m
	                  ON m.provider = p.provider AND m.market_id = p.market_id
	                WHERE p.confidence >= ? AND p.anchor_type <> ?`,
		minRuleConfidence, models.AnchorOtherUnknown).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	samples := make([]profiler.TrainingSample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, profiler.TrainingSample{
			Provider:   r.Provider,
			MarketID:   r.MarketID,
			Text:       profiler.NormalizeText(r.Title),
			AnchorType: r.AnchorType,
		})
	}
	return samples, nil
}
