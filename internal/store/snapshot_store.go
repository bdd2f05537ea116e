/**
 * @description
 * Snapshot store: persists adapter records as market, outcome, and snapshot
 * rows in one transaction per record. All writes are idempotent upserts keyed
 * by primary identity, so re-running a tick rewrites identical rows.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: Postgres error codes for retry classification
 */

package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxRetries = 5

// SnapshotStore owns all writes to markets, outcomes, and snapshots.
type SnapshotStore struct {
	DB *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{DB: db}
}

// UpsertSnapshot writes one adapter record atomically.
func (s *SnapshotStore) UpsertSnapshot(ctx context.Context, rec models.OutcomeSnapshot) error {
	market, outcome, snapshot := rec.ToRows()

	return withDeadlockRetry(func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "provider"}, {Name: "market_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"title",
					"raw_category",
					"normalized_category",
					"status",
					"metadata",
					"updated_at",
				}),
			}).Create(&market).Error; err != nil {
				return err
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "provider"}, {Name: "market_id"}, {Name: "outcome_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"label",
					"updated_at",
				}),
			}).Create(&outcome).Error; err != nil {
				return err
			}

			return tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "ts_minute"}, {Name: "provider"}, {Name: "market_id"}, {Name: "outcome_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"probability",
					"spread_pp",
					"volume_24h_usd",
					"liquidity_usd",
					"market_title",
					"raw_category",
					"normalized_category",
					"market_status",
				}),
			}).Create(&snapshot).Error
		})
	})
}

// UpsertAll writes a batch, logging and skipping row-scoped failures.
// It returns the number of rows written; the error is non-nil only when the
// database rejected every row, which means the cycle should fail.
func (s *SnapshotStore) UpsertAll(ctx context.Context, recs []models.OutcomeSnapshot) (int, error) {
	written := 0
	var lastErr error

	for _, rec := range recs {
		if err := s.UpsertSnapshot(ctx, rec); err != nil {
			logger.Error("store: upsert failed for %s/%s/%s: %v", rec.Provider, rec.MarketID, rec.OutcomeID, err)
			lastErr = err
			continue
		}
		written++
	}

	if written == 0 && lastErr != nil {
		return 0, lastErr
	}
	return written, nil
}

// withDeadlockRetry retries on Postgres deadlock (40P01) and serialization
// (40001) failures with jittered backoff.
func withDeadlockRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40P01" || pgErr.Code == "40001") {
			backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
			time.Sleep(backoff)
			continue
		}
		return err
	}
	return err
}
