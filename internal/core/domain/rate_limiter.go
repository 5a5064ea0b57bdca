// Package domain concentra entidades e regras centrais da camada de proteção.
package domain

import (
	"fmt"
	"time"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second

	// MaxWindow é a maior janela aceita vinda de fora do processo.
	MaxWindow = 24 * time.Hour
)

// WindowFromMillis converte uma janela em milissegundos. Valores não
// positivos viram 0, que Normalize troca pelo padrão; valores acima de
// MaxWindow são recusados.
func WindowFromMillis(ms int64) (time.Duration, error) {
	if ms <= 0 {
		return 0, nil
	}
	if ms > MaxWindow.Milliseconds() {
		return 0, fmt.Errorf("%w: %dms", ErrWindowTooLarge, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// RateLimitRule define o teto de chamadas aceitas dentro de uma janela fixa.
type RateLimitRule struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultRule devolve a regra padrão: 10 chamadas a cada 60 segundos.
func DefaultRule() RateLimitRule {
	return RateLimitRule{MaxRequests: DefaultMaxRequests, Window: DefaultWindow}
}

// Normalize substitui valores não positivos pelos da regra fallback.
func (r RateLimitRule) Normalize(fallback RateLimitRule) RateLimitRule {
	if fallback.MaxRequests <= 0 {
		fallback.MaxRequests = DefaultMaxRequests
	}
	if fallback.Window <= 0 {
		fallback.Window = DefaultWindow
	}
	if r.MaxRequests <= 0 {
		r.MaxRequests = fallback.MaxRequests
	}
	if r.Window <= 0 {
		r.Window = fallback.Window
	}
	return r
}

// RateLimitRecord guarda o estado de um identificador na janela corrente.
type RateLimitRecord struct {
	Identifier    string
	Count         int64
	WindowResetAt time.Time
}

// Expired indica se a janela do registro já terminou em now.
func (r RateLimitRecord) Expired(now time.Time) bool {
	return !now.Before(r.WindowResetAt)
}

// Decision descreve o resultado de uma verificação de rate limit.
type Decision struct {
	Allowed      bool
	Identifier   string
	AppliedRule  RateLimitRule
	CurrentCount int64
	ResetAt      time.Time
}

// Remaining devolve quantas chamadas ainda cabem na janela corrente.
func (d Decision) Remaining() int64 {
	left := int64(d.AppliedRule.MaxRequests) - d.CurrentCount
	if left < 0 {
		return 0
	}
	return left
}

// Evaluate aplica a janela fixa sobre o registro atual de um identificador.
//
// found indica se current existe. O registro devolvido só deve ser gravado
// quando a chamada é aceita; uma recusa devolve current sem alterações.
// O relógio precisa ser monotônico: com now regredindo o resultado é indefinido.
func Evaluate(current RateLimitRecord, found bool, identifier string, rule RateLimitRule, now time.Time) (RateLimitRecord, Decision) {
	if !found || current.Expired(now) {
		next := RateLimitRecord{
			Identifier:    identifier,
			Count:         1,
			WindowResetAt: now.Add(rule.Window),
		}
		return next, decisionFor(next, rule, true)
	}

	if current.Count >= int64(rule.MaxRequests) {
		return current, decisionFor(current, rule, false)
	}

	current.Count++
	return current, decisionFor(current, rule, true)
}

func decisionFor(rec RateLimitRecord, rule RateLimitRule, allowed bool) Decision {
	return Decision{
		Allowed:      allowed,
		Identifier:   rec.Identifier,
		AppliedRule:  rule,
		CurrentCount: rec.Count,
		ResetAt:      rec.WindowResetAt,
	}
}
