package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JeanGrijp/cardguard/internal/adapters/storage/memory"
	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

func TestRateLimiter_AllowsUpToMaxRequests(t *testing.T) {
	clock := newFakeClock()
	service := newTestService(t, memory.New(), clock.Now, Config{})
	rule := domain.RateLimitRule{MaxRequests: 3, Window: time.Second}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !service.CheckRateLimit(ctx, "search", rule) {
			t.Fatalf("expected call %d to be allowed", i+1)
		}
	}

	if service.CheckRateLimit(ctx, "search", rule) {
		t.Fatalf("expected call 4 to be denied inside the window")
	}
}

func TestRateLimiter_ResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	service := newTestService(t, memory.New(), clock.Now, Config{})
	rule := domain.RateLimitRule{MaxRequests: 3, Window: time.Second}
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		service.CheckRateLimit(ctx, "search", rule)
	}

	clock.Advance(time.Second)

	if !service.CheckRateLimit(ctx, "search", rule) {
		t.Fatalf("expected first call after the window to be allowed")
	}
	rec, ok := service.Record(ctx, "search")
	if !ok {
		t.Fatalf("expected record to exist after reset")
	}
	if rec.Count != 1 {
		t.Fatalf("expected count to reset to 1, got %d", rec.Count)
	}
	if !rec.WindowResetAt.Equal(clock.Now().Add(time.Second)) {
		t.Fatalf("expected new window to end at %v, got %v", clock.Now().Add(time.Second), rec.WindowResetAt)
	}
}

func TestRateLimiter_DeniedCallsDoNotExtendWindow(t *testing.T) {
	clock := newFakeClock()
	service := newTestService(t, memory.New(), clock.Now, Config{})
	rule := domain.RateLimitRule{MaxRequests: 1, Window: time.Second}
	ctx := context.Background()

	service.CheckRateLimit(ctx, "profile", rule)
	before, _ := service.Record(ctx, "profile")

	clock.Advance(500 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if service.CheckRateLimit(ctx, "profile", rule) {
			t.Fatalf("expected over-limit call %d to be denied", i+1)
		}
	}

	after, _ := service.Record(ctx, "profile")
	if after != before {
		t.Fatalf("denied calls mutated the record: before=%+v after=%+v", before, after)
	}
}

func TestRateLimiter_IdentifiersAreIsolated(t *testing.T) {
	service := newTestService(t, memory.New(), newFakeClock().Now, Config{})
	rule := domain.RateLimitRule{MaxRequests: 2, Window: time.Minute}
	ctx := context.Background()

	service.CheckRateLimit(ctx, "alice", rule)
	service.CheckRateLimit(ctx, "alice", rule)
	if service.CheckRateLimit(ctx, "alice", rule) {
		t.Fatalf("expected alice to be out of quota")
	}

	for i := 0; i < 2; i++ {
		if !service.CheckRateLimit(ctx, "bob", rule) {
			t.Fatalf("expected bob call %d to be allowed", i+1)
		}
	}
}

func TestRateLimiter_DefaultsForNonPositiveRule(t *testing.T) {
	clock := newFakeClock()
	service := newTestService(t, memory.New(), clock.Now, Config{})
	ctx := context.Background()

	for i := 0; i < domain.DefaultMaxRequests; i++ {
		if !service.CheckRateLimit(ctx, "lookup", domain.RateLimitRule{MaxRequests: -1}) {
			t.Fatalf("expected call %d to be allowed under the default rule", i+1)
		}
	}
	if service.CheckRateLimit(ctx, "lookup", domain.RateLimitRule{}) {
		t.Fatalf("expected call %d to be denied under the default rule", domain.DefaultMaxRequests+1)
	}

	rec, _ := service.Record(ctx, "lookup")
	if !rec.WindowResetAt.Equal(clock.Now().Add(domain.DefaultWindow)) {
		t.Fatalf("expected default window of %v, got reset at %v", domain.DefaultWindow, rec.WindowResetAt)
	}
}

func TestRateLimiter_ConfiguredDefaultRule(t *testing.T) {
	service := newTestService(t, memory.New(), newFakeClock().Now, Config{
		DefaultRule: domain.RateLimitRule{MaxRequests: 1, Window: time.Minute},
	})
	ctx := context.Background()

	if !service.CheckRateLimit(ctx, "wallet", domain.RateLimitRule{}) {
		t.Fatalf("expected first call to be allowed")
	}
	if service.CheckRateLimit(ctx, "wallet", domain.RateLimitRule{}) {
		t.Fatalf("expected configured default of 1 request to deny the second call")
	}
}

func TestRateLimiter_EmptyIdentifierFailsOpen(t *testing.T) {
	storage := memory.New()
	service := newTestService(t, storage, newFakeClock().Now, Config{})
	rule := domain.RateLimitRule{MaxRequests: 1, Window: time.Minute}

	for i := 0; i < 3; i++ {
		if !service.CheckRateLimit(context.Background(), "", rule) {
			t.Fatalf("expected empty identifier to be allowed")
		}
	}
	if storage.Len() != 0 {
		t.Fatalf("expected no record for an empty identifier, got %d", storage.Len())
	}
}

func TestRateLimiter_StorageErrorFailsOpen(t *testing.T) {
	service := newTestService(t, &failingStorage{err: errors.New("connection refused")}, newFakeClock().Now, Config{})

	decision := service.Evaluate(context.Background(), "search", domain.RateLimitRule{MaxRequests: 1, Window: time.Second})
	if !decision.Allowed {
		t.Fatalf("expected storage failure to allow the call")
	}
	if removed := service.CleanupRateLimits(context.Background()); removed != 0 {
		t.Fatalf("expected failed sweep to report 0 removals, got %d", removed)
	}
	if _, ok := service.Record(context.Background(), "search"); ok {
		t.Fatalf("expected lookup failure to report no record")
	}
}

func TestCleanupRateLimits_RemovesOnlyExpiredRecords(t *testing.T) {
	clock := newFakeClock()
	service := newTestService(t, memory.New(), clock.Now, Config{})
	ctx := context.Background()

	service.CheckRateLimit(ctx, "short", domain.RateLimitRule{MaxRequests: 5, Window: time.Second})
	service.CheckRateLimit(ctx, "long", domain.RateLimitRule{MaxRequests: 5, Window: time.Hour})

	clock.Advance(2 * time.Second)

	if removed := service.CleanupRateLimits(ctx); removed != 1 {
		t.Fatalf("expected 1 record removed, got %d", removed)
	}
	if _, ok := service.Record(ctx, "short"); ok {
		t.Fatalf("expected expired record to be removed")
	}
	if rec, ok := service.Record(ctx, "long"); !ok || rec.Count != 1 {
		t.Fatalf("expected live record untouched, got %+v ok=%v", rec, ok)
	}

	// Idempotent: a second sweep finds nothing else to remove.
	if removed := service.CleanupRateLimits(ctx); removed != 0 {
		t.Fatalf("expected second sweep to remove nothing, got %d", removed)
	}
}

func TestStartCleanup_StopsOnContextCancel(t *testing.T) {
	service := newTestService(t, memory.New(), time.Now, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		service.StartCleanup(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("cleanup loop did not stop after cancel")
	}
}

func TestNew_RequiresStorage(t *testing.T) {
	if _, err := New(Config{}, Dependencies{}); err == nil {
		t.Fatalf("expected error when storage is missing")
	}
}

func TestShared_ReturnsSameInstance(t *testing.T) {
	first, err := Shared(Config{Mode: domain.ModeDevelopment}, Dependencies{Storage: memory.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Shared(Config{Mode: domain.ModeProduction}, Dependencies{Storage: memory.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same instance from both calls")
	}
	if second.Mode() != domain.ModeDevelopment {
		t.Fatalf("expected later arguments to be ignored, got mode %q", second.Mode())
	}

	// Mutations through one handle are visible through the other.
	rule := domain.RateLimitRule{MaxRequests: 1, Window: time.Minute}
	first.CheckRateLimit(context.Background(), "shared", rule)
	if second.CheckRateLimit(context.Background(), "shared", rule) {
		t.Fatalf("expected quota spent via the first handle to apply to the second")
	}
}

func TestSanitize(t *testing.T) {
	service := newTestService(t, memory.New(), newFakeClock().Now, Config{})

	got := service.Sanitize("<img src=x onerror=alert(1)>")
	if got != "img src=x alert(1)" {
		t.Fatalf("unexpected sanitize output %q", got)
	}
	if again := service.Sanitize(got); again != got {
		t.Fatalf("expected sanitize to be a fixed point, got %q then %q", got, again)
	}
}

func TestEscapeHTML_WithoutMarkupCapabilityIsNoop(t *testing.T) {
	service := newTestService(t, memory.New(), newFakeClock().Now, Config{})

	in := `<b>"x" & 'y'</b>`
	if got := service.EscapeHTML(in); got != in {
		t.Fatalf("expected input unchanged without markup capability, got %q", got)
	}
}

// newTestService is a helper that fails the test immediately if creation fails.
func newTestService(t *testing.T, storage ports.Storage, now func() time.Time, cfg Config) *ProtectionService {
	t.Helper()
	service, err := New(cfg, Dependencies{Storage: storage, Now: now})
	if err != nil {
		t.Fatalf("failed to create protection service: %v", err)
	}
	return service
}
