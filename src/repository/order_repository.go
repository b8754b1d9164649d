package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crosstrader/src/database"
	"crosstrader/src/model"
)

// OrderRepository mirrors engine order state into the audit database. The
// engine remains authoritative; these rows serve the read API and
// post-mortem analysis.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main
// read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Info("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Upsert writes the snapshot for rec.OrderID, replacing a previous one.
func (r *OrderRepository) Upsert(
	ctx context.Context,
	rec *model.OrderRecord,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "OrderRepository",
		"op":       "Upsert",
		"order_id": rec.OrderID,
		"status":   rec.Status,
	}).Debug("Upserting order snapshot")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "Upsert",
			"order_id": rec.OrderID,
		}).WithError(err).Error("Failed to upsert order snapshot")

		return err
	}

	return nil
}

// FindByOrderID fetches the snapshot for an engine order id.
// Returns (nil, nil) if no snapshot exists.
func (r *OrderRepository) FindByOrderID(
	ctx context.Context,
	orderID uint64,
) (*model.OrderRecord, error) {

	var rec model.OrderRecord

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "OrderRepository",
			"op":       "FindByOrderID",
			"order_id": orderID,
		}).WithError(err).Error("Failed to fetch order snapshot")

		return nil, err
	}

	return &rec, nil
}

// OrderSearchOptions filters and paginates the order listing.
type OrderSearchOptions struct {
	Status      *string
	TriggerType *string
	Chain       *uint64
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// Search lists order snapshots, newest first.
func (r *OrderRepository) Search(
	ctx context.Context,
	options OrderSearchOptions,
) ([]model.OrderRecord, error) {

	if options.Limit <= 0 {
		options.Limit = 20
	}

	query := r.db.WithContext(ctx).Model(&model.OrderRecord{})

	if options.Status != nil {
		query = query.Where("status = ?", *options.Status)
	}
	if options.TriggerType != nil {
		query = query.Where("trigger_type = ?", *options.TriggerType)
	}
	if options.Chain != nil {
		query = query.Where("destination_chain = ?", *options.Chain)
	}
	if options.CreatedFrom != nil {
		query = query.Where("order_created_at >= ?", *options.CreatedFrom)
	}
	if options.CreatedTo != nil {
		query = query.Where("order_created_at <= ?", *options.CreatedTo)
	}

	var records []model.OrderRecord

	err := query.
		Order("order_id DESC").
		Limit(options.Limit).
		Offset(options.Offset).
		Find(&records).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search order snapshots")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "OrderRepository",
		"op":          "Search",
		"rows_return": len(records),
	}).Debug("Order snapshots fetched")

	return records, nil
}
