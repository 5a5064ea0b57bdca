// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
)

// Storage guarda os registros de rate limit. Hit executa o passo inteiro da
// janela fixa de forma atômica para o identificador.
type Storage interface {
	Hit(ctx context.Context, identifier string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error)
	Get(ctx context.Context, identifier string) (domain.RateLimitRecord, bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}
