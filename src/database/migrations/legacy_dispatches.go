package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"crosstrader/src/model"
)

// normalizeDispatchStatuses rewrites status values written by an earlier
// deployment, which used "pending"/"confirmed" instead of the current
// "sent"/"delivered" vocabulary.
func normalizeDispatchStatuses(db *gorm.DB) error {
	renames := map[string]string{
		"pending":   model.DispatchStatusSent,
		"confirmed": model.DispatchStatusDelivered,
		"error":     model.DispatchStatusFailed,
	}

	for old, current := range renames {
		err := db.Model(&model.DispatchLog{}).
			Where("status = ?", old).
			Update("status", current).Error
		if err != nil {
			return fmt.Errorf("rename dispatch status %q to %q: %w", old, current, err)
		}
	}

	return nil
}
