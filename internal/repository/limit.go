package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Dialect families with a known pagination clause.
const (
	FamilyMySQL    = "mysql"
	FamilyPostgres = "postgres"
)

// DialectFamily returns the backend family of db, e.g. "postgres" or "sqlite".
func DialectFamily(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	return db.Dialector.Name()
}

// LimitClause renders a pagination clause for raw queries. Families without a
// known syntax receive an empty clause, so callers must tolerate unlimited
// result sets and cap in memory.
func LimitClause(family string, offset, count int) string {
	if count <= 0 {
		return ""
	}
	if offset < 0 {
		offset = 0
	}

	switch family {
	case FamilyMySQL:
		return fmt.Sprintf(" LIMIT %d, %d", offset, count)
	case FamilyPostgres:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", count, offset)
	default:
		return ""
	}
}
