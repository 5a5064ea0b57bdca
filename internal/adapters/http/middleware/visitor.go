package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	VisitorCookie = "cg_visitor"
	visitorMaxAge = 365 * 24 * time.Hour
)

type visitorKey struct{}

type visitor struct {
	id string
	// returning indica que o id veio de um cookie válido enviado pelo cliente.
	returning bool
}

// NewVisitorMiddleware garante um identificador de visitante estável por
// navegador, guardado num cookie HttpOnly.
func NewVisitorMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var v visitor
			if c, err := r.Cookie(VisitorCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					v = visitor{id: id.String(), returning: true}
				}
			}
			if !v.returning {
				v.id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    v.id,
					Path:     "/",
					MaxAge:   int(visitorMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey{}, v)))
		})
	}
}

// VisitorFromContext devolve o id do visitante da requisição, inclusive um
// recém emitido.
func VisitorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(visitorKey{}).(visitor)
	return v.id, ok && v.id != ""
}

// ReturningVisitor devolve o id apenas quando o cliente enviou um cookie
// válido. Um id recém emitido não identifica ninguém: quem não guarda
// cookies receberia um novo a cada requisição.
func ReturningVisitor(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(visitorKey{}).(visitor)
	return v.id, ok && v.returning
}
