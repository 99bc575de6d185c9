package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	InteractionView     = "view"
	InteractionRead     = "read"
	InteractionBookmark = "bookmark"
	InteractionMemorize = "memorize"
	InteractionShare    = "share"
	InteractionLike     = "like"
	InteractionAnalyze  = "analyze"
)

var validInteractionTypes = map[string]bool{
	InteractionView:     true,
	InteractionRead:     true,
	InteractionBookmark: true,
	InteractionMemorize: true,
	InteractionShare:    true,
	InteractionLike:     true,
	InteractionAnalyze:  true,
}

func IsValidInteractionType(t string) bool { return validInteractionTypes[t] }

// QualifyingInteractionTypes are the types that feed pattern analysis and
// the user-facing read count (broader than the generation gate, which
// counts "read" only).
func QualifyingInteractionTypes() []string {
	return []string{InteractionView, InteractionRead, InteractionBookmark, InteractionMemorize}
}

// Interaction is one recorded user action against a hadith. Rows are
// immutable once written; there is one row per event.
type Interaction struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	HadithID        int64          `gorm:"not null;index" json:"hadith_id"`
	Type            string         `gorm:"not null;index" json:"type"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Rating          *int           `json:"rating,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	SourcePage      string         `json:"source_page,omitempty"`
	DeviceType      string         `json:"device_type,omitempty"`
	Metadata        datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Interaction) TableName() string { return "interactions" }
