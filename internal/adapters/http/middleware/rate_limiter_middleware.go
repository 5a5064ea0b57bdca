// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

const (
	rateLimitExceededMessage = "you have reached the maximum number of requests or actions allowed within a certain time frame"

	// WalletHeader carrega o endereço da carteira conectada, quando houver.
	WalletHeader = "X-Wallet-Address"
)

// RateLimiterConfig define a regra padrão e as regras por rota.
type RateLimiterConfig struct {
	Rule   domain.RateLimitRule
	Routes map[string]domain.RateLimitRule
}

type RateLimiterMiddleware struct {
	limiter ports.RateLimiter
	config  RateLimiterConfig
}

func NewRateLimiterMiddleware(limiter ports.RateLimiter, cfg RateLimiterConfig) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{limiter: limiter, config: cfg}
}

// For devolve o middleware de uma rota nomeada. O identificador combina a
// rota com o cliente, então cada rota tem sua própria cota.
func (m *RateLimiterMiddleware) For(route string) func(http.Handler) http.Handler {
	rule := m.config.Rule
	if override, ok := m.config.Routes[route]; ok {
		rule = override
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			identifier := route + ":" + ClientIdentifier(r)
			decision := m.limiter.Evaluate(r.Context(), identifier, rule)
			writeRateLimitHeaders(w, decision)

			if !decision.Allowed {
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIdentifier monta a chave do cliente a partir do IP. A carteira e o
// visitante só refinam a chave dentro do mesmo IP, porque ambos vêm do
// cliente; um visitante sem cookie enviado não conta.
func ClientIdentifier(r *http.Request) string {
	key := "ip:" + extractIP(r)
	if wallet := strings.ToLower(strings.TrimSpace(r.Header.Get(WalletHeader))); wallet != "" {
		return key + ":wallet:" + wallet
	}
	if visitor, ok := ReturningVisitor(r.Context()); ok {
		return key + ":visitor:" + visitor
	}
	return key
}

func extractIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}

func writeRateLimitHeaders(w http.ResponseWriter, decision domain.Decision) {
	if decision.ResetAt.IsZero() {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.AppliedRule.MaxRequests))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining(), 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(rateLimitExceededMessage))
}
