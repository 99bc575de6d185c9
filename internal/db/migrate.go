package db

import (
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Interaction log
		// =========================
		&types.Interaction{},

		// =========================
		// Derived state
		// =========================
		&types.HadithStatistic{},
		&types.ReadingPattern{},

		// =========================
		// Recommendations
		// =========================
		&types.Recommendation{},
	)
}
