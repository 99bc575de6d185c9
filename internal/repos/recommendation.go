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

type RecommendationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Recommendation) error
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int, strategy string, now time.Time) ([]*types.Recommendation, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Recommendation, error)
	CountActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error)
	DeleteStaleByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now, createdBefore time.Time) (int64, error)
	DeleteStaleAll(ctx context.Context, tx *gorm.DB, now, createdBefore time.Time) (int64, error)
	DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error)
	SetViewed(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error)
	SetClicked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error)
	SetFeedbackRating(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, rating int) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Recommendation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Create(row).Error
}

func (r *recommendationRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int, strategy string, now time.Time) ([]*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Recommendation
	if userID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("confidence_score DESC, created_at DESC")
	if strategy != "" {
		q = q.Where("strategy = ?", strategy)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) GetByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Recommendation
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *recommendationRepo) CountActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recommendationRepo) DeleteStaleByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now, createdBefore time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("user_id = ? AND (expires_at < ? OR created_at < ?)", userID, now, createdBefore).
		Delete(&types.Recommendation{})
	return res.RowsAffected, res.Error
}

func (r *recommendationRepo) DeleteStaleAll(ctx context.Context, tx *gorm.DB, now, createdBefore time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("expires_at < ? OR created_at < ?", now, createdBefore).
		Delete(&types.Recommendation{})
	return res.RowsAffected, res.Error
}

func (r *recommendationRepo) DeleteByIDAndUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Recommendation{})
	return res.RowsAffected, res.Error
}

func (r *recommendationRepo) SetViewed(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error) {
	return r.updateScoped(ctx, tx, id, userID, map[string]interface{}{"is_viewed": true})
}

func (r *recommendationRepo) SetClicked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (int64, error) {
	return r.updateScoped(ctx, tx, id, userID, map[string]interface{}{"is_clicked": true})
}

func (r *recommendationRepo) SetFeedbackRating(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, rating int) (int64, error) {
	return r.updateScoped(ctx, tx, id, userID, map[string]interface{}{"feedback_rating": rating})
}

func (r *recommendationRepo) updateScoped(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, values map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	return res.RowsAffected, res.Error
}
