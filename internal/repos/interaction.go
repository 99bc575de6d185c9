package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/types"
)

type InteractionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Interaction) (*types.Interaction, error)
	CountByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) (int64, error)
	GetByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) ([]*types.Interaction, error)
	HadithIDsByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) ([]int64, error)
	AverageRatingByHadith(ctx context.Context, tx *gorm.DB, hadithID int64) (float64, error)
	AverageDurationByHadith(ctx context.Context, tx *gorm.DB, hadithID int64) (float64, error)
	ActiveUserIDs(ctx context.Context, tx *gorm.DB, since time.Time) ([]uuid.UUID, error)
	LastByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Interaction, error)
	CountsByUserGroupedByType(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int64, error)
	SumDurationByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

func (r *interactionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Interaction) (*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *interactionRepo) CountByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if userID == uuid.Nil || len(interactionTypes) == 0 {
		return 0, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Where("user_id = ? AND type IN ?", userID, interactionTypes).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *interactionRepo) GetByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) ([]*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Interaction
	if userID == uuid.Nil || len(interactionTypes) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND type IN ?", userID, interactionTypes).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interactionRepo) HadithIDsByUserAndTypes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, interactionTypes []string) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []int64
	if userID == uuid.Nil || len(interactionTypes) == 0 {
		return ids, nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Distinct("hadith_id").
		Where("user_id = ? AND type IN ?", userID, interactionTypes).
		Pluck("hadith_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *interactionRepo) AverageRatingByHadith(ctx context.Context, tx *gorm.DB, hadithID int64) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var avg *float64
	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Select("AVG(rating)").
		Where("hadith_id = ? AND rating IS NOT NULL", hadithID).
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *interactionRepo) AverageDurationByHadith(ctx context.Context, tx *gorm.DB, hadithID int64) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var avg *float64
	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Select("AVG(duration_seconds)").
		Where("hadith_id = ? AND duration_seconds IS NOT NULL", hadithID).
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *interactionRepo) ActiveUserIDs(ctx context.Context, tx *gorm.DB, since time.Time) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Distinct("user_id").
		Where("created_at >= ?", since).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *interactionRepo) LastByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Interaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Interaction
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *interactionRepo) CountsByUserGroupedByType(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	type typeCount struct {
		Type  string
		Count int64
	}
	var rows []typeCount
	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Select("type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

func (r *interactionRepo) SumDurationByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var sum *int64
	if err := transaction.WithContext(ctx).
		Model(&types.Interaction{}).
		Select("SUM(duration_seconds)").
		Where("user_id = ? AND duration_seconds IS NOT NULL", userID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
