// Package memory disponibiliza o storage de registros em memória do processo.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

type Storage struct {
	mu      sync.Mutex
	records map[string]domain.RateLimitRecord
}

var _ ports.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{records: make(map[string]domain.RateLimitRecord)}
}

func (s *Storage) Hit(_ context.Context, identifier string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.records[identifier]
	next, decision := domain.Evaluate(current, found, identifier, rule, now)
	if decision.Allowed {
		s.records[identifier] = next
	}
	return decision, nil
}

func (s *Storage) Get(_ context.Context, identifier string) (domain.RateLimitRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	return rec, ok, nil
}

func (s *Storage) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	maps.DeleteFunc(s.records, func(_ string, rec domain.RateLimitRecord) bool {
		return rec.Expired(now)
	})
	return before - len(s.records), nil
}

// Len devolve a quantidade de identificadores rastreados.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
