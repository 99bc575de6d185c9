package types

import "testing"

func TestComputePopularityScoreDeterministic(t *testing.T) {
	first := ComputePopularityScore(10, 5, 2, 1, 4)
	second := ComputePopularityScore(10, 5, 2, 1, 4)
	if first != second {
		t.Fatalf("score must be deterministic: %v vs %v", first, second)
	}

	expected := 10*0.1 + 5*0.3 + 2*0.4 + 1*0.5 + 4*2.0
	if first != expected {
		t.Fatalf("expected %v, got %v", expected, first)
	}
}

func TestComputePopularityScoreZero(t *testing.T) {
	if got := ComputePopularityScore(0, 0, 0, 0, 0); got != 0 {
		t.Fatalf("expected zero score for zero inputs, got %v", got)
	}
}
