package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/types"
)

// Counter columns that IncrementCounter accepts. Guarded here so a column
// name can be interpolated into the upsert expression safely.
var statCounterColumns = map[string]bool{
	"total_views":         true,
	"total_reads":         true,
	"total_bookmarks":     true,
	"total_memorizations": true,
}

type HadithStatisticRepo interface {
	IncrementCounter(ctx context.Context, tx *gorm.DB, hadithID int64, column string, now time.Time) error
	GetByHadithID(ctx context.Context, tx *gorm.DB, hadithID int64) (*types.HadithStatistic, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.HadithStatistic) error
	ListTopExcluding(ctx context.Context, tx *gorm.DB, excluded []int64, limit int) ([]*types.HadithStatistic, error)
	ListHadithIDs(ctx context.Context, tx *gorm.DB, limit int) ([]int64, error)
}

type hadithStatisticRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHadithStatisticRepo(db *gorm.DB, baseLog *logger.Logger) HadithStatisticRepo {
	return &hadithStatisticRepo{db: db, log: baseLog.With("repo", "HadithStatisticRepo")}
}

func (r *hadithStatisticRepo) IncrementCounter(ctx context.Context, tx *gorm.DB, hadithID int64, column string, now time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if !statCounterColumns[column] {
		return fmt.Errorf("unknown statistic counter column %q", column)
	}

	row := &types.HadithStatistic{HadithID: hadithID, UpdatedAt: now}
	switch column {
	case "total_views":
		row.TotalViews = 1
	case "total_reads":
		row.TotalReads = 1
	case "total_bookmarks":
		row.TotalBookmarks = 1
	case "total_memorizations":
		row.TotalMemorizations = 1
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hadith_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				column:       gorm.Expr(column + " + 1"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

func (r *hadithStatisticRepo) GetByHadithID(ctx context.Context, tx *gorm.DB, hadithID int64) (*types.HadithStatistic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.HadithStatistic
	err := transaction.WithContext(ctx).
		Where("hadith_id = ?", hadithID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *hadithStatisticRepo) Save(ctx context.Context, tx *gorm.DB, row *types.HadithStatistic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(row).Error
}

func (r *hadithStatisticRepo) ListTopExcluding(ctx context.Context, tx *gorm.DB, excluded []int64, limit int) ([]*types.HadithStatistic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.HadithStatistic
	q := transaction.WithContext(ctx).Order("popularity_score DESC")
	if len(excluded) > 0 {
		q = q.Where("hadith_id NOT IN ?", excluded)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *hadithStatisticRepo) ListHadithIDs(ctx context.Context, tx *gorm.DB, limit int) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []int64
	q := transaction.WithContext(ctx).
		Model(&types.HadithStatistic{}).
		Order("hadith_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("hadith_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
