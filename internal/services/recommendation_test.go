package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/repos/testutil"
	"github.com/hadithhub/hadith-backend/internal/types"
)

type recommendationFixture struct {
	svc             RecommendationService
	recRepo         repos.RecommendationRepo
	statRepo        repos.HadithStatisticRepo
	patternRepo     repos.ReadingPatternRepo
	interactionRepo repos.InteractionRepo
	client          *fakeHadithClient
	now             time.Time
}

func newRecommendationFixture(t *testing.T) *recommendationFixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	f := &recommendationFixture{
		recRepo:         repos.NewRecommendationRepo(gdb, log),
		statRepo:        repos.NewHadithStatisticRepo(gdb, log),
		patternRepo:     repos.NewReadingPatternRepo(gdb, log),
		interactionRepo: repos.NewInteractionRepo(gdb, log),
		client:          &fakeHadithClient{hadiths: map[int64]*hadith.Hadith{}},
		now:             time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	directory := NewCategoryDirectory(log, f.client, func() time.Time { return f.now })
	f.svc = NewRecommendationService(gdb, log, f.recRepo, f.statRepo, f.patternRepo, f.interactionRepo,
		f.client, directory, func() time.Time { return f.now })
	return f
}

func (f *recommendationFixture) addReads(t *testing.T, userID uuid.UUID, hadithIDs ...int64) {
	t.Helper()
	for _, id := range hadithIDs {
		insertInteraction(t, f.interactionRepo, userID, id, types.InteractionRead, nil, nil, f.now.Add(-time.Hour))
	}
}

func (f *recommendationFixture) addStat(t *testing.T, hadithID int64, popularity float64) {
	t.Helper()
	err := f.statRepo.Save(context.Background(), nil, &types.HadithStatistic{
		HadithID:        hadithID,
		PopularityScore: popularity,
		UpdatedAt:       f.now,
	})
	if err != nil {
		t.Fatalf("save statistic: %v", err)
	}
}

func (f *recommendationFixture) addPreferredCategories(t *testing.T, userID uuid.UUID, categoryIDs ...int64) {
	t.Helper()
	prefs := make([]types.CategoryPreference, 0, len(categoryIDs))
	for i, id := range categoryIDs {
		prefs = append(prefs, types.CategoryPreference{CategoryID: id, Frequency: int64(10 - i)})
	}
	payload, err := types.EncodePatternPayload(types.PatternPayload{PreferredCategories: prefs})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	err = f.patternRepo.Upsert(context.Background(), nil, &types.ReadingPattern{
		ID:          uuid.New(),
		UserID:      userID,
		PatternType: types.PatternPreferredCategories,
		Payload:     payload,
		Confidence:  types.PreferredCategoriesConfidence,
		LastUpdated: f.now,
	})
	if err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
}

func TestGenerateGateBelowThreshold(t *testing.T) {
	// Two reads stay below the three-read gate.
	f := newRecommendationFixture(t)
	userID := uuid.New()
	f.addReads(t, userID, 1, 2)
	f.addStat(t, 100, 50)

	recs, err := f.svc.Generate(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty batch below gate, got %d", len(recs))
	}
}

func TestGenerateGateAtThreshold(t *testing.T) {
	f := newRecommendationFixture(t)
	userID := uuid.New()
	f.addReads(t, userID, 1, 2, 3)
	f.addStat(t, 100, 50)

	recs, err := f.svc.Generate(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(recs) == 0 {
		t.Fatalf("expected candidates at the gate threshold")
	}
}

func TestGenerateBlendingAndDedup(t *testing.T) {
	// Preferred categories {3,7}, 20 unread items of which 4 match;
	// similar_content must come first and no item may repeat.
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addReads(t, userID, 1, 2, 3, 4, 5)
	f.addPreferredCategories(t, userID, 3, 7)

	preferredItems := map[int64]bool{103: true, 109: true, 112: true, 117: true}
	for i := int64(0); i < 20; i++ {
		hadithID := 101 + i
		f.addStat(t, hadithID, float64(100-i))
		categories := []int64{9}
		if preferredItems[hadithID] {
			categories = []int64{3}
		}
		f.client.hadiths[hadithID] = &hadith.Hadith{ID: hadithID, Categories: categories}
	}

	recs, err := f.svc.Generate(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(recs) == 0 || len(recs) > 10 {
		t.Fatalf("expected 1..10 recommendations, got %d", len(recs))
	}

	seen := map[int64]bool{}
	for _, rec := range recs {
		if seen[rec.HadithID] {
			t.Fatalf("duplicate hadith %d in one batch", rec.HadithID)
		}
		seen[rec.HadithID] = true
	}

	if recs[0].Strategy != types.StrategySimilarContent {
		t.Fatalf("expected similar_content first, got %s", recs[0].Strategy)
	}
	similar := 0
	for _, rec := range recs {
		if rec.Strategy == types.StrategySimilarContent {
			similar++
			if !preferredItems[rec.HadithID] {
				t.Fatalf("similar_content picked non-preferred hadith %d", rec.HadithID)
			}
			if rec.ConfidenceScore != types.SimilarContentConfidence {
				t.Fatalf("unexpected similar confidence %v", rec.ConfidenceScore)
			}
		}
	}
	if similar != 4 {
		t.Fatalf("expected all 4 preferred-category items in similar phase, got %d", similar)
	}

	for i := 1; i < len(recs); i++ {
		if recs[i].Strategy == types.StrategySimilarContent && recs[i-1].Strategy != types.StrategySimilarContent {
			t.Fatalf("similar_content must precede other strategies")
		}
	}

	for _, rec := range recs {
		if rec.AlgorithmVersion != types.AlgorithmVersion {
			t.Fatalf("missing algorithm version stamp on %+v", rec)
		}
		if !rec.ExpiresAt.Equal(rec.CreatedAt.Add(types.RecommendationTTL)) {
			t.Fatalf("expiry must be creation + 7 days")
		}
	}
}

func TestGenerateExcludesConsumed(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addReads(t, userID, 101, 102, 103)
	for i := int64(0); i < 6; i++ {
		f.addStat(t, 101+i, float64(60-i))
	}

	recs, err := f.svc.Generate(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, rec := range recs {
		if rec.HadithID == 101 || rec.HadithID == 102 || rec.HadithID == 103 {
			t.Fatalf("already-read hadith %d must be excluded", rec.HadithID)
		}
	}
}

func TestGenerateWithoutPatternSkipsSimilar(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addReads(t, userID, 1, 2, 3)
	for i := int64(0); i < 6; i++ {
		f.addStat(t, 101+i, float64(60-i))
	}

	recs, err := f.svc.Generate(ctx, userID, 10)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(recs) == 0 {
		t.Fatalf("expected trending/personalized output without a pattern")
	}
	for _, rec := range recs {
		if rec.Strategy == types.StrategySimilarContent {
			t.Fatalf("similar_content must yield nothing without a preferred-categories pattern")
		}
	}
}

func TestRateReflectedOnRead(t *testing.T) {
	// A rating shows up on the next read without touching the
	// confidence score.
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	rec := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           userID,
		HadithID:         500,
		Strategy:         types.StrategyTrending,
		ConfidenceScore:  types.TrendingConfidence,
		Reason:           types.ReasonTrending,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now,
		ExpiresAt:        f.now.Add(types.RecommendationTTL),
	}
	if err := f.recRepo.Create(ctx, nil, rec); err != nil {
		t.Fatalf("create recommendation: %v", err)
	}

	if err := f.svc.Rate(ctx, userID, rec.ID, 5); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	views, err := f.svc.GetUserRecommendations(ctx, userID, 10, "")
	if err != nil {
		t.Fatalf("GetUserRecommendations failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(views))
	}
	if views[0].FeedbackRating == nil || *views[0].FeedbackRating != 5 {
		t.Fatalf("expected feedback rating 5, got %+v", views[0].FeedbackRating)
	}
	if views[0].ConfidenceScore != types.TrendingConfidence {
		t.Fatalf("rating must not change confidence, got %v", views[0].ConfidenceScore)
	}
	// Enrichment degraded to a placeholder because the source has no
	// such hadith.
	if views[0].Text == "" {
		t.Fatalf("expected placeholder text for unavailable content")
	}
}

func TestRateRejectsOutOfRange(t *testing.T) {
	f := newRecommendationFixture(t)
	if err := f.svc.Rate(context.Background(), uuid.New(), uuid.New(), 6); err == nil {
		t.Fatalf("expected out-of-range rating to fail")
	}
}

func TestRateForeignRowNoOp(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	rec := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           owner,
		HadithID:         600,
		Strategy:         types.StrategyTrending,
		ConfidenceScore:  types.TrendingConfidence,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now,
		ExpiresAt:        f.now.Add(types.RecommendationTTL),
	}
	if err := f.recRepo.Create(ctx, nil, rec); err != nil {
		t.Fatalf("create recommendation: %v", err)
	}

	if err := f.svc.Rate(ctx, uuid.New(), rec.ID, 4); err == nil {
		t.Fatalf("expected not-found for a foreign row")
	}
	row, err := f.recRepo.GetByIDAndUser(ctx, nil, rec.ID, owner)
	if err != nil || row == nil {
		t.Fatalf("owner row lookup failed: %v", err)
	}
	if row.FeedbackRating != nil {
		t.Fatalf("foreign rate attempt must not mutate the row")
	}
}

func TestExpiredRecommendationsInvisibleAndCleaned(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	stale := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           userID,
		HadithID:         700,
		Strategy:         types.StrategyTrending,
		ConfidenceScore:  types.TrendingConfidence,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now.Add(-8 * 24 * time.Hour),
		ExpiresAt:        f.now.Add(-24 * time.Hour),
	}
	if err := f.recRepo.Create(ctx, nil, stale); err != nil {
		t.Fatalf("create recommendation: %v", err)
	}

	deleted, err := f.svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 purged row, got %d", deleted)
	}

	views, err := f.svc.GetUserRecommendations(ctx, userID, 10, "")
	if err != nil {
		t.Fatalf("GetUserRecommendations failed: %v", err)
	}
	for _, v := range views {
		if v.HadithID == 700 {
			t.Fatalf("expired recommendation must not be returned")
		}
	}
}

func TestDeleteAndClearOld(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	fresh := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           userID,
		HadithID:         900,
		Strategy:         types.StrategyTrending,
		ConfidenceScore:  types.TrendingConfidence,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now,
		ExpiresAt:        f.now.Add(types.RecommendationTTL),
	}
	old := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           userID,
		HadithID:         901,
		Strategy:         types.StrategyTrending,
		ConfidenceScore:  types.TrendingConfidence,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now.Add(-9 * 24 * time.Hour),
		ExpiresAt:        f.now.Add(-2 * 24 * time.Hour),
	}
	for _, rec := range []*types.Recommendation{fresh, old} {
		if err := f.recRepo.Create(ctx, nil, rec); err != nil {
			t.Fatalf("create recommendation: %v", err)
		}
	}

	cleared, err := f.svc.ClearOld(ctx, userID)
	if err != nil {
		t.Fatalf("ClearOld failed: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared row, got %d", cleared)
	}

	if err := f.svc.Delete(ctx, userID, fresh.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := f.svc.Delete(ctx, userID, fresh.ID); err == nil {
		t.Fatalf("expected not-found on repeated delete")
	}

	count, err := f.recRepo.CountActiveByUser(ctx, nil, userID, f.now)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows left, got %d", count)
	}
}

func TestTrackRecommendationInteraction(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	rec := &types.Recommendation{
		ID:               uuid.New(),
		UserID:           userID,
		HadithID:         800,
		Strategy:         types.StrategyPersonalized,
		ConfidenceScore:  types.PersonalizedConfidence,
		AlgorithmVersion: types.AlgorithmVersion,
		CreatedAt:        f.now,
		ExpiresAt:        f.now.Add(types.RecommendationTTL),
	}
	if err := f.recRepo.Create(ctx, nil, rec); err != nil {
		t.Fatalf("create recommendation: %v", err)
	}

	if err := f.svc.TrackRecommendationInteraction(ctx, userID, rec.ID, "view"); err != nil {
		t.Fatalf("track view failed: %v", err)
	}
	if err := f.svc.TrackRecommendationInteraction(ctx, userID, rec.ID, "click"); err != nil {
		t.Fatalf("track click failed: %v", err)
	}
	if err := f.svc.TrackRecommendationInteraction(ctx, userID, rec.ID, "share"); err == nil {
		t.Fatalf("unknown action must be rejected")
	}

	row, err := f.recRepo.GetByIDAndUser(ctx, nil, rec.ID, userID)
	if err != nil || row == nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !row.IsViewed || !row.IsClicked {
		t.Fatalf("expected viewed and clicked flags set, got %+v", row)
	}
}

func TestDiagnoseSuggestions(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	report, err := f.svc.Diagnose(ctx, userID)
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if report.GateReadCount != 0 || len(report.Suggestions) == 0 {
		t.Fatalf("expected onboarding suggestions for a fresh user, got %+v", report)
	}

	// The diagnosis read count is broader than the generation gate.
	insertInteraction(t, f.interactionRepo, userID, 1, types.InteractionView, nil, nil, f.now)
	insertInteraction(t, f.interactionRepo, userID, 2, types.InteractionBookmark, nil, nil, f.now)
	insertInteraction(t, f.interactionRepo, userID, 3, types.InteractionRead, nil, nil, f.now)

	report, err = f.svc.Diagnose(ctx, userID)
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if report.ReadCount != 3 {
		t.Fatalf("expected broad count 3, got %d", report.ReadCount)
	}
	if report.GateReadCount != 1 {
		t.Fatalf("expected gate count 1, got %d", report.GateReadCount)
	}
	if report.LastInteractionAt == nil {
		t.Fatalf("expected last interaction time")
	}
}

func TestGetUserRecommendationsLazyGeneration(t *testing.T) {
	f := newRecommendationFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	f.addReads(t, userID, 1, 2, 3)
	for i := int64(0); i < 6; i++ {
		f.addStat(t, 101+i, float64(60-i))
	}

	views, err := f.svc.GetUserRecommendations(ctx, userID, 5, "")
	if err != nil {
		t.Fatalf("GetUserRecommendations failed: %v", err)
	}
	if len(views) == 0 {
		t.Fatalf("expected lazy generation on cache miss")
	}

	count, err := f.recRepo.CountActiveByUser(ctx, nil, userID, f.now)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count == 0 {
		t.Fatalf("lazy generation must persist rows")
	}
}
