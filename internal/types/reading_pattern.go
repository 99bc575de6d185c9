package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PatternPreferredCategories = "preferred_categories"
	PatternReadingTime         = "reading_time"
)

const (
	PreferredCategoriesConfidence = 0.8
	ReadingTimeConfidence         = 0.7
)

// ReadingPattern is a derived summary of a user's behavior. One row per
// (user_id, pattern_type), upserted on recompute. Confidence is a fixed
// constant per pattern type.
type ReadingPattern struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_user_pattern_type" json:"user_id"`
	PatternType string         `gorm:"not null;uniqueIndex:idx_user_pattern_type" json:"pattern_type"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Confidence  float64        `gorm:"not null;default:0" json:"confidence"`
	LastUpdated time.Time      `gorm:"not null" json:"last_updated"`
}

func (ReadingPattern) TableName() string { return "reading_patterns" }

// patternPayloadVersion tags serialized payloads so future pattern types
// can be added without breaking existing readers.
const patternPayloadVersion = 1

type CategoryPreference struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Frequency  int64  `json:"frequency"`
}

type HourFrequency struct {
	Hour      int   `json:"hour"`
	Frequency int64 `json:"frequency"`
}

// PatternPayload is the tagged union stored in ReadingPattern.Payload:
// exactly one variant is populated, keyed by the row's pattern type.
type PatternPayload struct {
	Version             int                  `json:"version"`
	PreferredCategories []CategoryPreference `json:"preferred_categories,omitempty"`
	Hourly              []HourFrequency      `json:"hourly,omitempty"`
}

func EncodePatternPayload(p PatternPayload) (datatypes.JSON, error) {
	p.Version = patternPayloadVersion
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// DecodePatternPayload tolerates unknown future versions by returning an
// empty payload rather than an error.
func DecodePatternPayload(raw datatypes.JSON) PatternPayload {
	var p PatternPayload
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return PatternPayload{}
	}
	if p.Version > patternPayloadVersion {
		return PatternPayload{Version: p.Version}
	}
	return p
}
