package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/logger"
)

// CategoryCacheTTL bounds how long a fetched taxonomy snapshot is served
// before the next lookup triggers a refresh.
const CategoryCacheTTL = 24 * time.Hour

// CategoryDirectory resolves category ids to display names through a
// process-local, time-boxed cache of the external taxonomy. Lookups never
// fail: a source outage degrades to placeholder labels.
type CategoryDirectory interface {
	ResolveName(ctx context.Context, categoryID int64) string
	ResolveAll(ctx context.Context) map[int64]string
}

type categoryDirectory struct {
	log    *logger.Logger
	client hadith.Client
	now    func() time.Time
	ttl    time.Duration

	mu        sync.RWMutex
	names     map[int64]string
	fetchedAt time.Time
}

func NewCategoryDirectory(baseLog *logger.Logger, client hadith.Client, now func() time.Time) CategoryDirectory {
	if now == nil {
		now = time.Now
	}
	return &categoryDirectory{
		log:    baseLog.With("service", "CategoryDirectory"),
		client: client,
		now:    now,
		ttl:    CategoryCacheTTL,
	}
}

func (d *categoryDirectory) ResolveName(ctx context.Context, categoryID int64) string {
	d.mu.RLock()
	fresh := d.names != nil && d.now().Sub(d.fetchedAt) < d.ttl
	name, ok := d.names[categoryID]
	d.mu.RUnlock()

	if fresh {
		if ok {
			return name
		}
		return placeholderCategoryName(categoryID)
	}

	if err := d.refresh(ctx); err != nil {
		d.log.Warn("category refresh failed", "category_id", categoryID, "error", err)
		return placeholderCategoryName(categoryID)
	}

	d.mu.RLock()
	name, ok = d.names[categoryID]
	d.mu.RUnlock()
	if ok {
		return name
	}
	return placeholderCategoryName(categoryID)
}

func (d *categoryDirectory) ResolveAll(ctx context.Context) map[int64]string {
	if err := d.refresh(ctx); err != nil {
		d.log.Warn("category refresh failed", "error", err)
		return map[int64]string{}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[int64]string, len(d.names))
	for id, name := range d.names {
		out[id] = name
	}
	return out
}

func (d *categoryDirectory) refresh(ctx context.Context) error {
	categories, err := d.client.ListCategories(ctx)
	if err != nil {
		return err
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Title
	}

	d.mu.Lock()
	d.names = names
	d.fetchedAt = d.now()
	d.mu.Unlock()
	return nil
}

func placeholderCategoryName(categoryID int64) string {
	return fmt.Sprintf("category %d", categoryID)
}
