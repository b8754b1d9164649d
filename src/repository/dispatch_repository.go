package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crosstrader/src/database"
	"crosstrader/src/model"
)

// DispatchRepository persists the cross-chain dispatch ledger and the
// per-run upkeep summaries.
type DispatchRepository struct {
	db *gorm.DB
}

func NewDispatchRepository() *DispatchRepository {
	logger.WithField("component", "DispatchRepository").
		Info("Creating new DispatchRepository with MainDB")

	return &DispatchRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *DispatchRepository) WithDB(db *gorm.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

// Create inserts a new dispatch row in the "sent" state.
func (r *DispatchRepository) Create(
	ctx context.Context,
	row *model.DispatchLog,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":        "DispatchRepository",
		"op":          "Create",
		"order_id":    row.OrderID,
		"dispatch_id": row.DispatchID,
	}).Debug("Recording dispatch")

	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "DispatchRepository",
			"op":          "Create",
			"dispatch_id": row.DispatchID,
		}).WithError(err).Error("Failed to record dispatch")

		return err
	}

	return nil
}

// Settle marks a dispatch delivered or failed once the bridge reports a
// receipt. Unknown ids are left alone.
func (r *DispatchRepository) Settle(
	ctx context.Context,
	dispatchID string,
	delivered bool,
	detail string,
) error {

	status := model.DispatchStatusDelivered
	if !delivered {
		status = model.DispatchStatusFailed
	}

	now := time.Now()

	err := r.db.WithContext(ctx).
		Model(&model.DispatchLog{}).
		Where("dispatch_id = ?", dispatchID).
		Updates(map[string]interface{}{
			"status":       status,
			"detail":       detail,
			"confirmed_at": &now,
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "DispatchRepository",
			"op":          "Settle",
			"dispatch_id": dispatchID,
			"status":      status,
		}).WithError(err).Error("Failed to settle dispatch")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "DispatchRepository",
		"op":          "Settle",
		"dispatch_id": dispatchID,
		"status":      status,
	}).Info("Dispatch settled")

	return nil
}

// FindByDispatchID fetches one dispatch row.
// Returns (nil, nil) if the id is unknown.
func (r *DispatchRepository) FindByDispatchID(
	ctx context.Context,
	dispatchID string,
) (*model.DispatchLog, error) {

	var row model.DispatchLog

	err := r.db.WithContext(ctx).
		Where("dispatch_id = ?", dispatchID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

// FindByOrderID lists the dispatch ledger for one order, oldest first.
func (r *DispatchRepository) FindByOrderID(
	ctx context.Context,
	orderID uint64,
) ([]model.DispatchLog, error) {

	var rows []model.DispatchLog

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "DispatchRepository",
			"op":       "FindByOrderID",
			"order_id": orderID,
		}).WithError(err).Error("Failed to fetch dispatch ledger")

		return nil, err
	}

	return rows, nil
}

// CreateRun records one upkeep summary row.
func (r *DispatchRepository) CreateRun(
	ctx context.Context,
	run *model.UpkeepRun,
) error {

	err := r.db.WithContext(ctx).Create(run).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "DispatchRepository",
			"op":   "CreateRun",
		}).WithError(err).Error("Failed to record upkeep run")

		return err
	}

	return nil
}

// FindLatestRuns returns the newest upkeep summaries.
func (r *DispatchRepository) FindLatestRuns(
	ctx context.Context,
	limit int,
) ([]model.UpkeepRun, error) {

	if limit <= 0 {
		limit = 20
	}

	var runs []model.UpkeepRun

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}

	return runs, nil
}
