package repository

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ordergateway/src/database"
	"ordergateway/src/model"
)

// TradeLogRepository persists ledger rows in the database sink. It is
// deliberately insert-only: the ledger is append-only, so no update or
// delete method exists.
type TradeLogRepository struct {
	db *gorm.DB
}

// NewTradeLogRepository creates a repository over the MainDB connection.
func NewTradeLogRepository() *TradeLogRepository {
	return &TradeLogRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *TradeLogRepository) WithDB(db *gorm.DB) *TradeLogRepository {
	return &TradeLogRepository{db: db}
}

// Create appends a single trade log row.
func (r *TradeLogRepository) Create(ctx context.Context, row *model.TradeLog) error {
	if r.db == nil {
		return fmt.Errorf("trade log repository has no database connection")
	}

	if row.RecordedAt.IsZero() {
		row.RecordedAt = time.Now()
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"repo":     "TradeLogRepository",
			"op":       "Create",
			"trade_id": row.TradeID,
			"reason":   row.Reason,
		}).Error("failed to insert trade log row")
		return err
	}
	return nil
}

// AppendEntry satisfies ledger.TradeLedger.
func (r *TradeLogRepository) AppendEntry(ctx context.Context, row *model.TradeLog) error {
	return r.Create(ctx, row)
}

// AppendExit satisfies ledger.TradeLedger.
func (r *TradeLogRepository) AppendExit(ctx context.Context, row *model.TradeLog) error {
	return r.Create(ctx, row)
}
