package types

import (
	"time"
)

// HadithStatistic keeps aggregate counters per hadith plus the derived
// popularity score. One row per hadith, upserted on every counted
// interaction and recomputed in bulk by the scheduler.
type HadithStatistic struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	HadithID           int64     `gorm:"not null;uniqueIndex" json:"hadith_id"`
	TotalViews         int64     `gorm:"not null;default:0" json:"total_views"`
	TotalReads         int64     `gorm:"not null;default:0" json:"total_reads"`
	TotalBookmarks     int64     `gorm:"not null;default:0" json:"total_bookmarks"`
	TotalMemorizations int64     `gorm:"not null;default:0" json:"total_memorizations"`
	AverageRating      float64   `gorm:"not null;default:0" json:"average_rating"`
	AverageReadingTime float64   `gorm:"not null;default:0" json:"average_reading_time"`
	PopularityScore    float64   `gorm:"not null;default:0;index" json:"popularity_score"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (HadithStatistic) TableName() string { return "hadith_statistics" }

// ComputePopularityScore derives the popularity score from the counters.
// The score is never set independently of its inputs.
func ComputePopularityScore(views, reads, bookmarks, memorizations int64, averageRating float64) float64 {
	return float64(views)*0.1 +
		float64(reads)*0.3 +
		float64(bookmarks)*0.4 +
		float64(memorizations)*0.5 +
		averageRating*2
}
