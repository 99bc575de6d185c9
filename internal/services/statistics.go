package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/types"
)

// Interaction types that bump a statistic counter, keyed to their column.
var statColumnByType = map[string]string{
	types.InteractionView:     "total_views",
	types.InteractionRead:     "total_reads",
	types.InteractionBookmark: "total_bookmarks",
	types.InteractionMemorize: "total_memorizations",
}

// StatisticsService maintains per-hadith counters and the derived
// popularity score. All of it is best-effort: failures are logged and
// must never block interaction tracking.
type StatisticsService interface {
	OnInteraction(ctx context.Context, hadithID int64, interactionType string) error
	RecomputeBatch(ctx context.Context, hadithIDs []int64) int
	RefreshTopBatch(ctx context.Context, limit int) (int, error)
}

type statisticsService struct {
	db              *gorm.DB
	log             *logger.Logger
	statRepo        repos.HadithStatisticRepo
	interactionRepo repos.InteractionRepo
}

func NewStatisticsService(db *gorm.DB, baseLog *logger.Logger, statRepo repos.HadithStatisticRepo, interactionRepo repos.InteractionRepo) StatisticsService {
	return &statisticsService{
		db:              db,
		log:             baseLog.With("service", "StatisticsService"),
		statRepo:        statRepo,
		interactionRepo: interactionRepo,
	}
}

func (s *statisticsService) OnInteraction(ctx context.Context, hadithID int64, interactionType string) error {
	column, counted := statColumnByType[interactionType]
	if !counted {
		return nil
	}

	now := time.Now().UTC()
	if err := s.statRepo.IncrementCounter(ctx, nil, hadithID, column, now); err != nil {
		s.log.Warn("counter increment failed", "hadith_id", hadithID, "column", column, "error", err)
		return err
	}

	row, err := s.statRepo.GetByHadithID(ctx, nil, hadithID)
	if err != nil || row == nil {
		s.log.Warn("statistic reload failed", "hadith_id", hadithID, "error", err)
		return err
	}

	if interactionType == types.InteractionRead {
		avg, err := s.interactionRepo.AverageRatingByHadith(ctx, nil, hadithID)
		if err != nil {
			s.log.Warn("average rating recompute failed", "hadith_id", hadithID, "error", err)
		} else {
			row.AverageRating = avg
		}
	}

	row.PopularityScore = types.ComputePopularityScore(
		row.TotalViews, row.TotalReads, row.TotalBookmarks, row.TotalMemorizations, row.AverageRating,
	)
	row.UpdatedAt = now

	if err := s.statRepo.Save(ctx, nil, row); err != nil {
		s.log.Warn("statistic save failed", "hadith_id", hadithID, "error", err)
		return err
	}
	return nil
}

// RecomputeBatch refreshes averages and popularity for the given hadiths.
// Per-item failures are isolated; it returns how many rows were refreshed.
func (s *statisticsService) RecomputeBatch(ctx context.Context, hadithIDs []int64) int {
	refreshed := 0
	for _, hadithID := range hadithIDs {
		if err := s.recomputeOne(ctx, hadithID); err != nil {
			s.log.Warn("statistic recompute failed", "hadith_id", hadithID, "error", err)
			continue
		}
		refreshed++
	}
	return refreshed
}

func (s *statisticsService) RefreshTopBatch(ctx context.Context, limit int) (int, error) {
	ids, err := s.statRepo.ListHadithIDs(ctx, nil, limit)
	if err != nil {
		return 0, err
	}
	return s.RecomputeBatch(ctx, ids), nil
}

func (s *statisticsService) recomputeOne(ctx context.Context, hadithID int64) error {
	row, err := s.statRepo.GetByHadithID(ctx, nil, hadithID)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}

	avgRating, err := s.interactionRepo.AverageRatingByHadith(ctx, nil, hadithID)
	if err != nil {
		return err
	}
	avgDuration, err := s.interactionRepo.AverageDurationByHadith(ctx, nil, hadithID)
	if err != nil {
		return err
	}

	row.AverageRating = avgRating
	row.AverageReadingTime = avgDuration
	row.PopularityScore = types.ComputePopularityScore(
		row.TotalViews, row.TotalReads, row.TotalBookmarks, row.TotalMemorizations, row.AverageRating,
	)
	row.UpdatedAt = time.Now().UTC()
	return s.statRepo.Save(ctx, nil, row)
}
