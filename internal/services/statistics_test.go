package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/repos/testutil"
	"github.com/hadithhub/hadith-backend/internal/types"
)

func newStatisticsFixture(t *testing.T) (*gorm.DB, StatisticsService, repos.InteractionRepo, repos.HadithStatisticRepo) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	interactionRepo := repos.NewInteractionRepo(gdb, log)
	statRepo := repos.NewHadithStatisticRepo(gdb, log)
	svc := NewStatisticsService(gdb, log, statRepo, interactionRepo)
	return gdb, svc, interactionRepo, statRepo
}

func insertInteraction(t *testing.T, repo repos.InteractionRepo, userID uuid.UUID, hadithID int64, interactionType string, rating *int, duration *int, createdAt time.Time) {
	t.Helper()
	_, err := repo.Create(context.Background(), nil, &types.Interaction{
		ID:              uuid.New(),
		UserID:          userID,
		HadithID:        hadithID,
		Type:            interactionType,
		Rating:          rating,
		DurationSeconds: duration,
		CreatedAt:       createdAt,
	})
	if err != nil {
		t.Fatalf("insert interaction: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func TestOnInteractionCreatesAndIncrements(t *testing.T) {
	_, svc, _, statRepo := newStatisticsFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.OnInteraction(ctx, 101, types.InteractionView); err != nil {
			t.Fatalf("OnInteraction failed: %v", err)
		}
	}
	if err := svc.OnInteraction(ctx, 101, types.InteractionBookmark); err != nil {
		t.Fatalf("OnInteraction failed: %v", err)
	}

	row, err := statRepo.GetByHadithID(ctx, nil, 101)
	if err != nil || row == nil {
		t.Fatalf("expected statistic row, err=%v", err)
	}
	if row.TotalViews != 3 || row.TotalBookmarks != 1 {
		t.Fatalf("unexpected counters: views=%d bookmarks=%d", row.TotalViews, row.TotalBookmarks)
	}

	expected := types.ComputePopularityScore(3, 0, 1, 0, 0)
	if math.Abs(row.PopularityScore-expected) > 1e-9 {
		t.Fatalf("expected popularity %v, got %v", expected, row.PopularityScore)
	}
}

func TestOnInteractionIgnoresUncountedTypes(t *testing.T) {
	_, svc, _, statRepo := newStatisticsFixture(t)
	ctx := context.Background()

	if err := svc.OnInteraction(ctx, 200, types.InteractionShare); err != nil {
		t.Fatalf("OnInteraction failed: %v", err)
	}
	row, err := statRepo.GetByHadithID(ctx, nil, 200)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if row != nil {
		t.Fatalf("share must not create a statistic row, got %+v", row)
	}
}

func TestReadRecomputesAverageRating(t *testing.T) {
	// Three reads rated 3, 4 and 5 must land on an average of 4.
	_, svc, interactionRepo, statRepo := newStatisticsFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	for _, rating := range []int{3, 4, 5} {
		insertInteraction(t, interactionRepo, userID, 300, types.InteractionRead, intPtr(rating), nil, now)
		if err := svc.OnInteraction(ctx, 300, types.InteractionRead); err != nil {
			t.Fatalf("OnInteraction failed: %v", err)
		}
	}

	row, err := statRepo.GetByHadithID(ctx, nil, 300)
	if err != nil || row == nil {
		t.Fatalf("expected statistic row, err=%v", err)
	}
	if math.Abs(row.AverageRating-4) > 1e-9 {
		t.Fatalf("expected average rating 4, got %v", row.AverageRating)
	}
	if row.TotalReads != 3 {
		t.Fatalf("expected 3 reads, got %d", row.TotalReads)
	}

	expected := types.ComputePopularityScore(0, 3, 0, 0, 4)
	if math.Abs(row.PopularityScore-expected) > 1e-9 {
		t.Fatalf("expected popularity %v, got %v", expected, row.PopularityScore)
	}
}

func TestRecomputeBatchRefreshesAverages(t *testing.T) {
	_, svc, interactionRepo, statRepo := newStatisticsFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC()

	if err := svc.OnInteraction(ctx, 400, types.InteractionRead); err != nil {
		t.Fatalf("OnInteraction failed: %v", err)
	}
	insertInteraction(t, interactionRepo, userID, 400, types.InteractionRead, intPtr(5), intPtr(120), now)
	insertInteraction(t, interactionRepo, userID, 400, types.InteractionRead, intPtr(3), intPtr(60), now)

	if refreshed := svc.RecomputeBatch(ctx, []int64{400, 999}); refreshed != 1 {
		t.Fatalf("expected 1 refreshed row (999 has no statistic), got %d", refreshed)
	}

	row, err := statRepo.GetByHadithID(ctx, nil, 400)
	if err != nil || row == nil {
		t.Fatalf("expected statistic row, err=%v", err)
	}
	if math.Abs(row.AverageRating-4) > 1e-9 {
		t.Fatalf("expected average rating 4, got %v", row.AverageRating)
	}
	if math.Abs(row.AverageReadingTime-90) > 1e-9 {
		t.Fatalf("expected average reading time 90, got %v", row.AverageReadingTime)
	}
}

func TestRefreshTopBatchBounded(t *testing.T) {
	_, svc, _, _ := newStatisticsFixture(t)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		if err := svc.OnInteraction(ctx, id, types.InteractionView); err != nil {
			t.Fatalf("OnInteraction failed: %v", err)
		}
	}

	refreshed, err := svc.RefreshTopBatch(ctx, 3)
	if err != nil {
		t.Fatalf("RefreshTopBatch failed: %v", err)
	}
	if refreshed != 3 {
		t.Fatalf("expected batch bound of 3, refreshed %d", refreshed)
	}
}
