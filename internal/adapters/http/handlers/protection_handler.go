package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JeanGrijp/cardguard/internal/adapters/http/middleware"
	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

const (
	maxBodyBytes = 64 << 10

	// ClientScope prefixa os identificadores escolhidos pelo cliente.
	ClientScope = "client:"
)

type ProtectionHandler struct {
	text    ports.TextGuard
	limiter ports.RateLimiter
	log     *zap.SugaredLogger
}

func NewProtectionHandler(text ports.TextGuard, limiter ports.RateLimiter, log *zap.SugaredLogger) *ProtectionHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ProtectionHandler{text: text, limiter: limiter, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	Text string `json:"text"`
}

type rateLimitRequest struct {
	Identifier  string `json:"identifier"`
	MaxRequests int    `json:"maxRequests"`
	WindowMs    int64  `json:"windowMs"`
}

type rateLimitResponse struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"resetAt,omitempty"`
}

// Sanitize aplica o filtro heurístico ao texto recebido.
func (h *ProtectionHandler) Sanitize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: h.text.Sanitize(req.Text)})
}

// Escape devolve o texto com os caracteres de markup escapados.
func (h *ProtectionHandler) Escape(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: h.text.EscapeHTML(req.Text)})
}

// RateLimit conta uma chamada para o identificador informado pelo cliente.
// O identificador fica num namespace próprio do cliente, separado das chaves
// usadas pelo middleware das rotas.
func (h *ProtectionHandler) RateLimit(w http.ResponseWriter, r *http.Request) {
	var req rateLimitRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	window, err := domain.WindowFromMillis(req.WindowMs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "windowMs exceeds the maximum window")
		return
	}

	identifier := ClientScope + middleware.ClientIdentifier(r) + ":" + req.Identifier
	decision := h.limiter.Evaluate(r.Context(), identifier, domain.RateLimitRule{
		MaxRequests: req.MaxRequests,
		Window:      window,
	})

	resp := rateLimitResponse{Allowed: decision.Allowed, Remaining: decision.Remaining()}
	if !decision.ResetAt.IsZero() {
		resp.ResetAt = decision.ResetAt.UnixMilli()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProtectionHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Debugw("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
