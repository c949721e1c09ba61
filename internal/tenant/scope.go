// Package tenant confines queries to one company.
package tenant

import "gorm.io/gorm"

// Company keeps rows of companyID. Pass table when the query joins another
// table, so the column is qualified.
func Company(companyID string, table ...string) func(db *gorm.DB) *gorm.DB {
	column := "company_id"
	if len(table) > 0 && table[0] != "" {
		column = table[0] + ".company_id"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", companyID)
	}
}
