// Package handlers agrupa os handlers HTTP da camada de proteção.
package handlers

import (
	"net/http"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
)

// HealthHandler responde com o estado do processo e o modo de execução.
func HealthHandler(mode domain.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": string(mode)})
	}
}
