package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/jobs"
	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/types"
)

type TrackInput struct {
	HadithID        int64          `json:"hadith_id"`
	Type            string         `json:"type"`
	DurationSeconds *int           `json:"duration_seconds,omitempty"`
	Rating          *int           `json:"rating,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	SourcePage      string         `json:"source_page,omitempty"`
	DeviceType      string         `json:"device_type,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type UserStats struct {
	CountsByType      map[string]int64 `json:"counts_by_type"`
	TotalInteractions int64            `json:"total_interactions"`
	TotalDuration     int64            `json:"total_duration_seconds"`
	LastInteractionAt *time.Time       `json:"last_interaction_at,omitempty"`
}

// InteractionService records interaction events. The persistence write is
// synchronous; statistic and pattern updates are dispatched to the job
// pool so the caller never waits on them or sees their errors.
type InteractionService interface {
	Track(ctx context.Context, userID uuid.UUID, input TrackInput) (*types.Interaction, error)
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type interactionService struct {
	db              *gorm.DB
	log             *logger.Logger
	interactionRepo repos.InteractionRepo
	stats           StatisticsService
	patterns        PatternService
	pool            *jobs.Pool
}

func NewInteractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	interactionRepo repos.InteractionRepo,
	stats StatisticsService,
	patterns PatternService,
	pool *jobs.Pool,
) InteractionService {
	return &interactionService{
		db:              db,
		log:             baseLog.With("service", "InteractionService"),
		interactionRepo: interactionRepo,
		stats:           stats,
		patterns:        patterns,
		pool:            pool,
	}
}

func (s *interactionService) Track(ctx context.Context, userID uuid.UUID, input TrackInput) (*types.Interaction, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if input.HadithID <= 0 {
		return nil, fmt.Errorf("hadith id required")
	}
	interactionType := strings.TrimSpace(strings.ToLower(input.Type))
	if !types.IsValidInteractionType(interactionType) {
		return nil, fmt.Errorf("invalid interaction type %q", input.Type)
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	row := &types.Interaction{
		ID:              uuid.New(),
		UserID:          userID,
		HadithID:        input.HadithID,
		Type:            interactionType,
		DurationSeconds: input.DurationSeconds,
		Rating:          input.Rating,
		Notes:           strings.TrimSpace(input.Notes),
		SourcePage:      strings.TrimSpace(input.SourcePage),
		DeviceType:      strings.TrimSpace(input.DeviceType),
		CreatedAt:       time.Now().UTC(),
	}
	if len(input.Metadata) > 0 {
		if b, err := json.Marshal(input.Metadata); err == nil {
			row.Metadata = datatypes.JSON(b)
		}
	}

	if _, err := s.interactionRepo.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("persist interaction: %w", err)
	}

	hadithID := row.HadithID
	s.pool.Submit(jobs.Task{
		Name: "stats:on_interaction",
		Run: func(taskCtx context.Context) error {
			return s.stats.OnInteraction(taskCtx, hadithID, interactionType)
		},
	})
	s.pool.Submit(jobs.Task{
		Name: "patterns:maybe_update",
		Run: func(taskCtx context.Context) error {
			return s.patterns.MaybeUpdate(taskCtx, userID)
		},
	})

	return row, nil
}

func (s *interactionService) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	counts, err := s.interactionRepo.CountsByUserGroupedByType(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	totalDuration, err := s.interactionRepo.SumDurationByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	last, err := s.interactionRepo.LastByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		CountsByType:  counts,
		TotalDuration: totalDuration,
	}
	for _, count := range counts {
		stats.TotalInteractions += count
	}
	if last != nil {
		t := last.CreatedAt
		stats.LastInteractionAt = &t
	}
	return stats, nil
}
