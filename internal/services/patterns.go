package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/types"
)

// PatternUpdateInterval throttles per-user recomputation under interaction
// bursts. Recomputation is deliberately stale-tolerant.
const PatternUpdateInterval = 30 * time.Minute

const (
	maxPreferredItems      = 10
	maxPreferredCategories = 10
)

// PatternService infers per-user preferred categories and preferred
// reading hours from the interaction history.
type PatternService interface {
	// MaybeUpdate recomputes only when the newest pattern row is older
	// than PatternUpdateInterval (or none exists).
	MaybeUpdate(ctx context.Context, userID uuid.UUID) error
	// Update recomputes both analyses unconditionally. Each analysis is
	// tried and logged independently; there is no partial rollback.
	Update(ctx context.Context, userID uuid.UUID) error
	GetPatterns(ctx context.Context, userID uuid.UUID) ([]*types.ReadingPattern, error)
}

type patternService struct {
	db              *gorm.DB
	log             *logger.Logger
	patternRepo     repos.ReadingPatternRepo
	interactionRepo repos.InteractionRepo
	client          hadith.Client
	directory       CategoryDirectory
	now             func() time.Time
}

func NewPatternService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patternRepo repos.ReadingPatternRepo,
	interactionRepo repos.InteractionRepo,
	client hadith.Client,
	directory CategoryDirectory,
	now func() time.Time,
) PatternService {
	if now == nil {
		now = time.Now
	}
	return &patternService{
		db:              db,
		log:             baseLog.With("service", "PatternService"),
		patternRepo:     patternRepo,
		interactionRepo: interactionRepo,
		client:          client,
		directory:       directory,
		now:             now,
	}
}

func (s *patternService) MaybeUpdate(ctx context.Context, userID uuid.UUID) error {
	latest, err := s.patternRepo.LatestUpdateByUser(ctx, nil, userID)
	if err != nil {
		return err
	}
	if !latest.IsZero() && s.now().Sub(latest) <= PatternUpdateInterval {
		return nil
	}
	return s.Update(ctx, userID)
}

func (s *patternService) Update(ctx context.Context, userID uuid.UUID) error {
	interactions, err := s.interactionRepo.GetByUserAndTypes(ctx, nil, userID, types.QualifyingInteractionTypes())
	if err != nil {
		return err
	}

	if err := s.updatePreferredCategories(ctx, userID, interactions); err != nil {
		s.log.Warn("preferred categories analysis failed", "user_id", userID, "error", err)
	}
	if err := s.updateReadingTime(ctx, userID, interactions); err != nil {
		s.log.Warn("reading time analysis failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *patternService) GetPatterns(ctx context.Context, userID uuid.UUID) ([]*types.ReadingPattern, error) {
	return s.patternRepo.GetByUser(ctx, nil, userID)
}

func (s *patternService) updatePreferredCategories(ctx context.Context, userID uuid.UUID, interactions []*types.Interaction) error {
	itemFrequency := make(map[int64]int64, len(interactions))
	for _, in := range interactions {
		itemFrequency[in.HadithID]++
	}

	topItems := topHadithsByFrequency(itemFrequency, maxPreferredItems)
	fetched := fetchHadiths(ctx, s.log, s.client, topItems)

	categoryFrequency := make(map[int64]int64)
	for _, hadithID := range topItems {
		h, ok := fetched[hadithID]
		if !ok {
			continue
		}
		for _, categoryID := range h.Categories {
			categoryFrequency[categoryID] += itemFrequency[hadithID]
		}
	}

	type categoryCount struct {
		id    int64
		count int64
	}
	ranked := make([]categoryCount, 0, len(categoryFrequency))
	for id, count := range categoryFrequency {
		ranked = append(ranked, categoryCount{id: id, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > maxPreferredCategories {
		ranked = ranked[:maxPreferredCategories]
	}

	preferences := make([]types.CategoryPreference, 0, len(ranked))
	for _, rc := range ranked {
		preferences = append(preferences, types.CategoryPreference{
			CategoryID: rc.id,
			Name:       s.directory.ResolveName(ctx, rc.id),
			Frequency:  rc.count,
		})
	}

	payload, err := types.EncodePatternPayload(types.PatternPayload{PreferredCategories: preferences})
	if err != nil {
		return err
	}
	return s.patternRepo.Upsert(ctx, nil, &types.ReadingPattern{
		ID:          uuid.New(),
		UserID:      userID,
		PatternType: types.PatternPreferredCategories,
		Payload:     payload,
		Confidence:  types.PreferredCategoriesConfidence,
		LastUpdated: s.now().UTC(),
	})
}

func (s *patternService) updateReadingTime(ctx context.Context, userID uuid.UUID, interactions []*types.Interaction) error {
	hourFrequency := make(map[int]int64)
	for _, in := range interactions {
		hourFrequency[in.CreatedAt.UTC().Hour()]++
	}

	hours := make([]types.HourFrequency, 0, len(hourFrequency))
	for hour, count := range hourFrequency {
		hours = append(hours, types.HourFrequency{Hour: hour, Frequency: count})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Frequency != hours[j].Frequency {
			return hours[i].Frequency > hours[j].Frequency
		}
		return hours[i].Hour < hours[j].Hour
	})

	payload, err := types.EncodePatternPayload(types.PatternPayload{Hourly: hours})
	if err != nil {
		return err
	}
	return s.patternRepo.Upsert(ctx, nil, &types.ReadingPattern{
		ID:          uuid.New(),
		UserID:      userID,
		PatternType: types.PatternReadingTime,
		Payload:     payload,
		Confidence:  types.ReadingTimeConfidence,
		LastUpdated: s.now().UTC(),
	})
}

func topHadithsByFrequency(frequency map[int64]int64, limit int) []int64 {
	type itemCount struct {
		id    int64
		count int64
	}
	ranked := make([]itemCount, 0, len(frequency))
	for id, count := range frequency {
		ranked = append(ranked, itemCount{id: id, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]int64, 0, len(ranked))
	for _, rc := range ranked {
		ids = append(ids, rc.id)
	}
	return ids
}
