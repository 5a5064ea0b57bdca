// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
)

type RateLimiter interface {
	Evaluate(ctx context.Context, identifier string, rule domain.RateLimitRule) domain.Decision
	CheckRateLimit(ctx context.Context, identifier string, rule domain.RateLimitRule) bool
}

type TextGuard interface {
	Sanitize(text string) string
	EscapeHTML(text string) string
}
