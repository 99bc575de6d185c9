package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	StrategySimilarContent = "similar_content"
	StrategyTrending       = "trending"
	StrategyPersonalized   = "personalized"
)

const (
	SimilarContentConfidence = 0.8
	TrendingConfidence       = 0.7
	PersonalizedConfidence   = 0.9
)

const (
	ReasonSimilarContent = "based on your prior interests"
	ReasonTrending       = "most popular items"
	ReasonPersonalized   = "tailored to your reading patterns"
)

// AlgorithmVersion is stamped on every generated recommendation so it is
// auditable which generation logic produced a row.
const AlgorithmVersion = "v1.2"

// RecommendationTTL bounds both expiry and the age-based purge.
const RecommendationTTL = 7 * 24 * time.Hour

// Recommendation is one generated suggestion for a user. Created only by
// generation; mutated only by view/click tracking and feedback; removed by
// expiry cleanup or explicit user deletion.
type Recommendation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	HadithID         int64     `gorm:"not null" json:"hadith_id"`
	Strategy         string    `gorm:"not null" json:"strategy"`
	ConfidenceScore  float64   `gorm:"not null" json:"confidence_score"`
	Reason           string    `json:"reason"`
	AlgorithmVersion string    `gorm:"not null" json:"algorithm_version"`
	IsViewed         bool      `gorm:"not null;default:false" json:"is_viewed"`
	IsClicked        bool      `gorm:"not null;default:false" json:"is_clicked"`
	FeedbackRating   *int      `json:"feedback_rating,omitempty"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expires_at"`
}

func (Recommendation) TableName() string { return "recommendations" }
