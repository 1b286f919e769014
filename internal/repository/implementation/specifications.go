package implementation

import (
	"ai-research-be/internal/repository/specification"

	"gorm.io/gorm"
)

// applySpecifications chains query specifications onto a gorm builder.
func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, s := range specs {
		db = s.Apply(db)
	}
	return db
}
