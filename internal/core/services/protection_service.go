package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
	"github.com/JeanGrijp/cardguard/internal/metrics"
)

// Config agrega o modo de execução, os guards ligados e a regra padrão de rate limit.
type Config struct {
	Mode        domain.Mode
	Guards      domain.GuardSet
	DefaultRule domain.RateLimitRule
}

// Dependencies reúne os colaboradores externos do serviço.
type Dependencies struct {
	Storage      ports.Storage
	Capabilities ports.Capabilities
	Logger       *zap.SugaredLogger
	Now          func() time.Time
}

// ProtectionService instala os guards do ambiente, sanitiza texto e aplica
// rate limit por identificador.
type ProtectionService struct {
	storage ports.Storage
	caps    ports.Capabilities
	config  Config
	log     *zap.SugaredLogger
	now     func() time.Time

	installOnce sync.Once
	reports     []domain.GuardReport
}

var (
	_ ports.RateLimiter = (*ProtectionService)(nil)
	_ ports.TextGuard   = (*ProtectionService)(nil)
)

// New cria uma instância nova, sem instalar guards. Use Shared na raiz de
// composição e New nos testes.
func New(cfg Config, deps Dependencies) (*ProtectionService, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg.DefaultRule = cfg.DefaultRule.Normalize(domain.DefaultRule())
	if cfg.Guards == nil {
		cfg.Guards = domain.GuardSet{}
	}

	return &ProtectionService{
		storage: deps.Storage,
		caps:    deps.Capabilities,
		config:  cfg,
		log:     deps.Logger,
		now:     deps.Now,
	}, nil
}

var (
	sharedOnce sync.Once
	shared     *ProtectionService
	sharedErr  error
)

// Shared devolve a instância única do processo. A primeira chamada constrói o
// serviço e instala os guards; as seguintes ignoram os argumentos e devolvem
// a mesma instância.
func Shared(cfg Config, deps Dependencies) (*ProtectionService, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = New(cfg, deps)
		if sharedErr == nil {
			shared.InstallGuards()
		}
	})
	return shared, sharedErr
}

func (s *ProtectionService) Mode() domain.Mode {
	return s.config.Mode
}

func (s *ProtectionService) DefaultRule() domain.RateLimitRule {
	return s.config.DefaultRule
}

// Sanitize aplica o filtro heurístico de domain.Sanitize.
func (s *ProtectionService) Sanitize(text string) string {
	out := domain.Sanitize(text)
	if out != text {
		metrics.SanitizedInputs.Inc()
	}
	return out
}

// EscapeHTML converte caracteres significativos de markup na sua forma literal.
// Sem a capacidade de markup o texto volta inalterado.
func (s *ProtectionService) EscapeHTML(text string) string {
	if s.caps.Markup == nil {
		return text
	}
	var escaped string
	err := protect(func() error {
		var err error
		escaped, err = s.caps.Markup.EscapeText(text)
		return err
	})
	if err != nil {
		s.log.Warnw("Markup escaping failed; returning input unchanged", "error", err)
		return text
	}
	return escaped
}

// Evaluate conta uma chamada para identifier e devolve a decisão completa.
// Valores não positivos em rule assumem a regra padrão do serviço. Falhas de
// storage e identificador vazio liberam a chamada sem contá-la.
func (s *ProtectionService) Evaluate(ctx context.Context, identifier string, rule domain.RateLimitRule) domain.Decision {
	rule = rule.Normalize(s.config.DefaultRule)
	if identifier == "" {
		s.log.Warnw("Rate limit check without identifier; allowing", "error", domain.ErrEmptyIdentifier)
		metrics.RateLimitDecisions.WithLabelValues("unidentified").Inc()
		return domain.Decision{Allowed: true, AppliedRule: rule}
	}

	decision, err := s.storage.Hit(ctx, identifier, rule, s.now())
	if err != nil {
		s.log.Warnw("Rate limit storage failed; allowing", "identifier", identifier, "error", err)
		metrics.RateLimitStoreErrors.WithLabelValues("hit").Inc()
		return domain.Decision{Allowed: true, Identifier: identifier, AppliedRule: rule}
	}

	if decision.Allowed {
		metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	} else {
		metrics.RateLimitDecisions.WithLabelValues("denied").Inc()
		s.log.Debugw("Rate limit exceeded", "identifier", identifier, "count", decision.CurrentCount, "resetAt", decision.ResetAt)
	}
	return decision
}

// CheckRateLimit informa se a chamada de identifier é permitida; true
// significa que ela já foi contada.
func (s *ProtectionService) CheckRateLimit(ctx context.Context, identifier string, rule domain.RateLimitRule) bool {
	return s.Evaluate(ctx, identifier, rule).Allowed
}

// CleanupRateLimits remove os registros cuja janela já terminou e devolve
// quantos foram removidos.
func (s *ProtectionService) CleanupRateLimits(ctx context.Context) int {
	removed, err := s.storage.Sweep(ctx, s.now())
	if err != nil {
		s.log.Warnw("Rate limit cleanup failed", "removed", removed, "error", err)
		metrics.RateLimitStoreErrors.WithLabelValues("sweep").Inc()
	}
	if removed > 0 {
		metrics.RateLimitRecordsSwept.Add(float64(removed))
		s.log.Debugw("Removed expired rate limit records", "count", removed)
	}
	return removed
}

// Record devolve o registro atual de identifier, se houver.
func (s *ProtectionService) Record(ctx context.Context, identifier string) (domain.RateLimitRecord, bool) {
	rec, found, err := s.storage.Get(ctx, identifier)
	if err != nil {
		s.log.Warnw("Rate limit lookup failed", "identifier", identifier, "error", err)
		metrics.RateLimitStoreErrors.WithLabelValues("get").Inc()
		return domain.RateLimitRecord{}, false
	}
	return rec, found
}

// StartCleanup roda CleanupRateLimits a cada interval até ctx ser cancelado.
func (s *ProtectionService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupRateLimits(ctx)
		}
	}
}

// protect converte panics de capacidades do ambiente em erro.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()
	return fn()
}
