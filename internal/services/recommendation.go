package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/types"
)

const (
	// MinReadInteractions gates generation: users with fewer "read"
	// interactions get an empty batch. The user-facing diagnosis counts a
	// broader set of types; the two are deliberately not unified.
	MinReadInteractions = 3

	DefaultRecommendationLimit = 10

	similarContentShare = 0.4
	trendingShare       = 0.3
	personalizedShare   = 0.3

	topPreferredCategories = 3
	candidatePoolFactor    = 4
)

// RecommendationView is a recommendation row enriched with live content
// from the external source. Content fields degrade to placeholders when
// the source is unavailable.
type RecommendationView struct {
	*types.Recommendation
	Text          string   `json:"text"`
	Attribution   string   `json:"attribution"`
	Reference     string   `json:"reference"`
	Grade         string   `json:"grade"`
	CategoryNames []string `json:"category_names,omitempty"`
}

type DiagnosisReport struct {
	ReadCount             int64      `json:"read_count"`
	GateReadCount         int64      `json:"gate_read_count"`
	MinReadsRequired      int        `json:"min_reads_required"`
	LastInteractionAt     *time.Time `json:"last_interaction_at,omitempty"`
	ActiveRecommendations int64      `json:"active_recommendations"`
	Suggestions           []string   `json:"suggestions"`
}

type RecommendationService interface {
	Generate(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error)
	GetUserRecommendations(ctx context.Context, userID uuid.UUID, limit int, strategy string) ([]*RecommendationView, error)
	TrackRecommendationInteraction(ctx context.Context, userID, recID uuid.UUID, action string) error
	Rate(ctx context.Context, userID, recID uuid.UUID, rating int) error
	Delete(ctx context.Context, userID, recID uuid.UUID) error
	ClearOld(ctx context.Context, userID uuid.UUID) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
	Diagnose(ctx context.Context, userID uuid.UUID) (*DiagnosisReport, error)
}

type recommendationService struct {
	db              *gorm.DB
	log             *logger.Logger
	recRepo         repos.RecommendationRepo
	statRepo        repos.HadithStatisticRepo
	patternRepo     repos.ReadingPatternRepo
	interactionRepo repos.InteractionRepo
	client          hadith.Client
	directory       CategoryDirectory
	now             func() time.Time
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	recRepo repos.RecommendationRepo,
	statRepo repos.HadithStatisticRepo,
	patternRepo repos.ReadingPatternRepo,
	interactionRepo repos.InteractionRepo,
	client hadith.Client,
	directory CategoryDirectory,
	now func() time.Time,
) RecommendationService {
	if now == nil {
		now = time.Now
	}
	return &recommendationService{
		db:              db,
		log:             baseLog.With("service", "RecommendationService"),
		recRepo:         recRepo,
		statRepo:        statRepo,
		patternRepo:     patternRepo,
		interactionRepo: interactionRepo,
		client:          client,
		directory:       directory,
		now:             now,
	}
}

func (s *recommendationService) Generate(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	now := s.now().UTC()

	if _, err := s.recRepo.DeleteStaleByUser(ctx, nil, userID, now, now.Add(-types.RecommendationTTL)); err != nil {
		s.log.Warn("stale purge failed", "user_id", userID, "error", err)
	}

	readCount, err := s.interactionRepo.CountByUserAndTypes(ctx, nil, userID, []string{types.InteractionRead})
	if err != nil {
		return nil, fmt.Errorf("count read interactions: %w", err)
	}
	if readCount < MinReadInteractions {
		return []*types.Recommendation{}, nil
	}

	consumed, err := s.interactionRepo.HadithIDsByUserAndTypes(ctx, nil, userID,
		[]string{types.InteractionRead, types.InteractionBookmark})
	if err != nil {
		return nil, fmt.Errorf("load consumed hadiths: %w", err)
	}

	candidates, err := s.statRepo.ListTopExcluding(ctx, nil, consumed, limit*candidatePoolFactor)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	preferred := s.preferredCategoryIDs(ctx, userID, topPreferredCategories)

	// Category membership is only needed when a preference filter applies.
	var categoriesByHadith map[int64][]int64
	if len(preferred) > 0 {
		ids := make([]int64, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.HadithID)
		}
		categoriesByHadith = make(map[int64][]int64, len(ids))
		for id, h := range fetchHadiths(ctx, s.log, s.client, ids) {
			categoriesByHadith[id] = h.Categories
		}
	}

	selected := make(map[int64]bool, limit)
	picked := make([]*types.Recommendation, 0, limit)

	appendPhase := func(strategy string, target int, include func(hadithID int64) bool, confidence float64, reason string) {
		if target > limit-len(picked) {
			target = limit - len(picked)
		}
		count := 0
		for _, candidate := range candidates {
			if count >= target {
				break
			}
			if selected[candidate.HadithID] || !include(candidate.HadithID) {
				continue
			}
			selected[candidate.HadithID] = true
			picked = append(picked, &types.Recommendation{
				ID:               uuid.New(),
				UserID:           userID,
				HadithID:         candidate.HadithID,
				Strategy:         strategy,
				ConfidenceScore:  confidence,
				Reason:           reason,
				AlgorithmVersion: types.AlgorithmVersion,
				CreatedAt:        now,
				ExpiresAt:        now.Add(types.RecommendationTTL),
			})
			count++
		}
	}

	matchesPreferred := func(hadithID int64) bool {
		for _, categoryID := range categoriesByHadith[hadithID] {
			for _, preferredID := range preferred {
				if categoryID == preferredID {
					return true
				}
			}
		}
		return false
	}

	if len(preferred) > 0 {
		appendPhase(types.StrategySimilarContent, ceilShare(limit, similarContentShare),
			matchesPreferred, types.SimilarContentConfidence, types.ReasonSimilarContent)
	}
	appendPhase(types.StrategyTrending, ceilShare(limit, trendingShare),
		func(int64) bool { return true }, types.TrendingConfidence, types.ReasonTrending)
	personalizedInclude := func(int64) bool { return true }
	if len(preferred) > 0 {
		personalizedInclude = matchesPreferred
	}
	appendPhase(types.StrategyPersonalized, ceilShare(limit, personalizedShare),
		personalizedInclude, types.PersonalizedConfidence, types.ReasonPersonalized)

	persisted := make([]*types.Recommendation, 0, len(picked))
	for _, rec := range picked {
		if err := s.recRepo.Create(ctx, nil, rec); err != nil {
			s.log.Warn("recommendation save failed", "user_id", userID, "hadith_id", rec.HadithID, "error", err)
			continue
		}
		persisted = append(persisted, rec)
	}

	s.log.Info("recommendations generated",
		"user_id", userID, "requested", limit, "persisted", len(persisted))
	return persisted, nil
}

func (s *recommendationService) GetUserRecommendations(ctx context.Context, userID uuid.UUID, limit int, strategy string) ([]*RecommendationView, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	now := s.now().UTC()

	rows, err := s.recRepo.GetActiveByUser(ctx, nil, userID, limit, strategy, now)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if _, err := s.Generate(ctx, userID, limit); err != nil {
			s.log.Warn("lazy generation failed", "user_id", userID, "error", err)
		}
		rows, err = s.recRepo.GetActiveByUser(ctx, nil, userID, limit, strategy, now)
		if err != nil {
			return nil, err
		}
	}

	rows = dedupeByHadith(rows)
	return s.enrich(ctx, rows), nil
}

func (s *recommendationService) TrackRecommendationInteraction(ctx context.Context, userID, recID uuid.UUID, action string) error {
	var (
		affected int64
		err      error
	)
	switch action {
	case "view":
		affected, err = s.recRepo.SetViewed(ctx, nil, recID, userID)
	case "click":
		affected, err = s.recRepo.SetClicked(ctx, nil, recID, userID)
	default:
		return fmt.Errorf("unknown recommendation action %q", action)
	}
	if err != nil {
		return err
	}
	if affected == 0 {
		s.log.Debug("recommendation interaction ignored", "rec_id", recID, "user_id", userID, "action", action)
	}
	return nil
}

func (s *recommendationService) Rate(ctx context.Context, userID, recID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	affected, err := s.recRepo.SetFeedbackRating(ctx, nil, recID, userID, rating)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *recommendationService) Delete(ctx context.Context, userID, recID uuid.UUID) error {
	affected, err := s.recRepo.DeleteByIDAndUser(ctx, nil, recID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *recommendationService) ClearOld(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := s.now().UTC()
	return s.recRepo.DeleteStaleByUser(ctx, nil, userID, now, now.Add(-types.RecommendationTTL))
}

func (s *recommendationService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	return s.recRepo.DeleteStaleAll(ctx, nil, now, now.Add(-types.RecommendationTTL))
}

func (s *recommendationService) Diagnose(ctx context.Context, userID uuid.UUID) (*DiagnosisReport, error) {
	broadCount, err := s.interactionRepo.CountByUserAndTypes(ctx, nil, userID, types.QualifyingInteractionTypes())
	if err != nil {
		return nil, err
	}
	gateCount, err := s.interactionRepo.CountByUserAndTypes(ctx, nil, userID, []string{types.InteractionRead})
	if err != nil {
		return nil, err
	}
	last, err := s.interactionRepo.LastByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	activeRecs, err := s.recRepo.CountActiveByUser(ctx, nil, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	report := &DiagnosisReport{
		ReadCount:             broadCount,
		GateReadCount:         gateCount,
		MinReadsRequired:      MinReadInteractions,
		ActiveRecommendations: activeRecs,
	}
	if last != nil {
		t := last.CreatedAt
		report.LastInteractionAt = &t
	}

	if last == nil {
		report.Suggestions = append(report.Suggestions, "start reading hadiths to build your profile")
	}
	if gateCount < MinReadInteractions {
		report.Suggestions = append(report.Suggestions,
			fmt.Sprintf("read %d more hadiths to unlock recommendations", MinReadInteractions-gateCount))
	}
	if gateCount >= MinReadInteractions && activeRecs == 0 {
		report.Suggestions = append(report.Suggestions, "generate a fresh recommendation batch")
	}
	return report, nil
}

func (s *recommendationService) preferredCategoryIDs(ctx context.Context, userID uuid.UUID, limit int) []int64 {
	pattern, err := s.patternRepo.GetByUserAndType(ctx, nil, userID, types.PatternPreferredCategories)
	if err != nil {
		s.log.Warn("preferred categories lookup failed", "user_id", userID, "error", err)
		return nil
	}
	if pattern == nil {
		return nil
	}

	payload := types.DecodePatternPayload(pattern.Payload)
	ids := make([]int64, 0, limit)
	for _, pref := range payload.PreferredCategories {
		if len(ids) >= limit {
			break
		}
		ids = append(ids, pref.CategoryID)
	}
	return ids
}

func (s *recommendationService) enrich(ctx context.Context, rows []*types.Recommendation) []*RecommendationView {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.HadithID)
	}
	fetched := fetchHadiths(ctx, s.log, s.client, ids)

	views := make([]*RecommendationView, 0, len(rows))
	for _, row := range rows {
		view := &RecommendationView{Recommendation: row}
		if h, ok := fetched[row.HadithID]; ok {
			view.Text = h.Text
			view.Attribution = h.Attribution
			view.Reference = h.Reference
			view.Grade = h.Grade
			for _, categoryID := range h.Categories {
				view.CategoryNames = append(view.CategoryNames, s.directory.ResolveName(ctx, categoryID))
			}
		} else {
			view.Text = fmt.Sprintf("hadith %d", row.HadithID)
		}
		views = append(views, view)
	}
	return views
}

func dedupeByHadith(rows []*types.Recommendation) []*types.Recommendation {
	seen := make(map[int64]bool, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if seen[row.HadithID] {
			continue
		}
		seen[row.HadithID] = true
		out = append(out, row)
	}
	return out
}

func ceilShare(limit int, share float64) int {
	return int(math.Ceil(float64(limit) * share))
}
