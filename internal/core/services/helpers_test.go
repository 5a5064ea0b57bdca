package services

import (
	"context"
	"sync"
	"time"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingStorage struct {
	err error
}

func (f *failingStorage) Hit(context.Context, string, domain.RateLimitRule, time.Time) (domain.Decision, error) {
	return domain.Decision{}, f.err
}

func (f *failingStorage) Get(context.Context, string) (domain.RateLimitRecord, bool, error) {
	return domain.RateLimitRecord{}, false, f.err
}

func (f *failingStorage) Sweep(context.Context, time.Time) (int, error) {
	return 0, f.err
}
