package types

import (
	"testing"

	"gorm.io/datatypes"
)

func TestPatternPayloadRoundTrip(t *testing.T) {
	encoded, err := EncodePatternPayload(PatternPayload{
		PreferredCategories: []CategoryPreference{
			{CategoryID: 3, Name: "Virtues", Frequency: 12},
			{CategoryID: 7, Name: "Prayer", Frequency: 5},
		},
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded := DecodePatternPayload(encoded)
	if decoded.Version != patternPayloadVersion {
		t.Fatalf("expected version %d, got %d", patternPayloadVersion, decoded.Version)
	}
	if len(decoded.PreferredCategories) != 2 {
		t.Fatalf("expected 2 preferences, got %d", len(decoded.PreferredCategories))
	}
	if decoded.PreferredCategories[0].CategoryID != 3 || decoded.PreferredCategories[0].Frequency != 12 {
		t.Fatalf("unexpected first preference: %+v", decoded.PreferredCategories[0])
	}
	if len(decoded.Hourly) != 0 {
		t.Fatalf("expected empty hourly variant, got %d entries", len(decoded.Hourly))
	}
}

func TestPatternPayloadHourlyVariant(t *testing.T) {
	encoded, err := EncodePatternPayload(PatternPayload{
		Hourly: []HourFrequency{{Hour: 21, Frequency: 9}, {Hour: 6, Frequency: 2}},
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded := DecodePatternPayload(encoded)
	if len(decoded.Hourly) != 2 || decoded.Hourly[0].Hour != 21 {
		t.Fatalf("unexpected hourly payload: %+v", decoded.Hourly)
	}
}

func TestDecodePatternPayloadTolerance(t *testing.T) {
	if p := DecodePatternPayload(nil); len(p.PreferredCategories) != 0 || len(p.Hourly) != 0 {
		t.Fatalf("expected empty payload for nil input")
	}
	if p := DecodePatternPayload(datatypes.JSON(`not json`)); len(p.PreferredCategories) != 0 {
		t.Fatalf("expected empty payload for malformed input")
	}

	future := datatypes.JSON(`{"version":99,"preferred_categories":[{"category_id":1}]}`)
	if p := DecodePatternPayload(future); len(p.PreferredCategories) != 0 {
		t.Fatalf("unknown future version must decode to an empty variant")
	}
}
