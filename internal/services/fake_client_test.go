package services

import (
	"context"
	"sync"

	"github.com/hadithhub/hadith-backend/internal/clients/hadith"
)

// fakeHadithClient is the in-memory stand-in for the external content
// source used across service tests.
type fakeHadithClient struct {
	mu         sync.Mutex
	hadiths    map[int64]*hadith.Hadith
	categories []hadith.Category
	getErr     error
	listErr    error
	getCalls   int
	listCalls  int
}

func (f *fakeHadithClient) GetHadith(ctx context.Context, id int64) (*hadith.Hadith, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	h, ok := f.hadiths[id]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return h, nil
}

func (f *fakeHadithClient) ListCategories(ctx context.Context) ([]hadith.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.categories, nil
}

func (f *fakeHadithClient) calls() (gets, lists int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.listCalls
}
