package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
	"github.com/hadithhub/hadith-backend/internal/logger"
)

const (
	contentFetchTimeout  = 5 * time.Second
	contentFetchInflight = 8
)

// fetchHadiths fans out one content-source call per id with a bounded
// number in flight. Per-call failures are logged and the id is simply
// absent from the result, never an error for the caller.
func fetchHadiths(ctx context.Context, log *logger.Logger, client hadith.Client, hadithIDs []int64) map[int64]*hadith.Hadith {
	results := make(map[int64]*hadith.Hadith, len(hadithIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(contentFetchInflight)
	for _, hadithID := range hadithIDs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, contentFetchTimeout)
			defer cancel()

			h, err := client.GetHadith(callCtx, hadithID)
			if err != nil {
				log.Debug("hadith fetch skipped", "hadith_id", hadithID, "error", err)
				return nil
			}
			mu.Lock()
			results[hadithID] = h
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
