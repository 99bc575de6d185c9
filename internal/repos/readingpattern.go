package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/types"
)

type ReadingPatternRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ReadingPattern) error
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReadingPattern, error)
	GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, patternType string) (*types.ReadingPattern, error)
	LatestUpdateByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (time.Time, error)
}

type readingPatternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadingPatternRepo(db *gorm.DB, baseLog *logger.Logger) ReadingPatternRepo {
	return &readingPatternRepo{db: db, log: baseLog.With("repo", "ReadingPatternRepo")}
}

func (r *readingPatternRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ReadingPattern) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "pattern_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "confidence", "last_updated"}),
		}).
		Create(row).Error
}

func (r *readingPatternRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ReadingPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReadingPattern
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("pattern_type ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *readingPatternRepo) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, patternType string) (*types.ReadingPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ReadingPattern
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND pattern_type = ?", userID, patternType).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *readingPatternRepo) LatestUpdateByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var latest *time.Time
	if err := transaction.WithContext(ctx).
		Model(&types.ReadingPattern{}).
		Select("MAX(last_updated)").
		Where("user_id = ?", userID).
		Scan(&latest).Error; err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
