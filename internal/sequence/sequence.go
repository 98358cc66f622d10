// Package sequence assigns per-tenant monotonic numbers (order numbers,
// display positions) through a counter row updated with a single atomic
// increment. Values start at 0 for the first assignment in a scope.
package sequence

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitebuilder-service/internal/model"
)

// Scopes used across handlers
const (
	ScopeOrders   = "orders"
	ScopeServices = "services"
	ScopeTeam     = "team"
)

// ProductScope returns the sequence scope for products, per category when one
// is set so each category numbers its items independently.
func ProductScope(category string) string {
	if category == "" {
		return "products"
	}
	return fmt.Sprintf("products:%s", category)
}

// Next reserves and returns the next value for the tenant's scope. Safe under
// concurrent callers: a single upsert either inserts the counter at 0 or
// increments the existing row, so a racing first-time create never raises a
// constraint error that would abort the surrounding transaction.
func Next(db *gorm.DB, tenantID uint, scope string) (int, error) {
	var value int
	err := db.Transaction(func(tx *gorm.DB) error {
		counter := model.SequenceCounter{TenantID: tenantID, Scope: scope, Value: 0}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "scope"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("value + 1")}),
		}).Create(&counter).Error; err != nil {
			return err
		}

		return tx.Model(&model.SequenceCounter{}).
			Where("tenant_id = ? AND scope = ?", tenantID, scope).
			Select("value").
			Scan(&value).Error
	})
	return value, err
}
