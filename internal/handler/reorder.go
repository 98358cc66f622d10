package handler

import (
	"errors"

	"gorm.io/gorm"
)

var errReorderNotFound = errors.New("record not found in tenant")

// reorderInTx applies a batch of {id, position} updates for one tenant inside
// a single transaction. The batch is atomic from the caller's perspective: any
// unknown or cross-tenant ID rolls back every update.
func reorderInTx(db *gorm.DB, entity interface{}, tenantID uint, items []ReorderRequest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			result := tx.Model(entity).
				Where("id = ? AND tenant_id = ?", item.ID, tenantID).
				Update("position", item.Position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errReorderNotFound
			}
		}
		return nil
	})
}
