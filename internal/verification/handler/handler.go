package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certmint/internal/platform/middleware"
	"certmint/internal/transport/http/shared"
	"certmint/internal/verification"
	dErrors "certmint/pkg/domain-errors"
)

// Resolver is the unauthenticated verification surface.
type Resolver interface {
	Resolve(ctx context.Context, certID string) (verification.Result, error)
	Exists(ctx context.Context, certID string) (bool, error)
	ResolveScan(ctx context.Context, raw string) (verification.Result, error)
}

// Handler serves the public verification endpoints. No auth on purpose:
// anyone holding a certificate id or a scanned QR may check it.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{certificateID}", h.handleVerify)
	r.Post("/verify/scan", h.handleScan)
	r.Get("/certificate/{certificateID}", h.handleResolve)
}

type verifyResponse struct {
	Exists        bool   `json:"exists"`
	CertificateID string `json:"certificateId"`
}

// handleVerify is the lightweight existence check used by the landing page
// before it fetches the full record.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certID := chi.URLParam(r, "certificateID")

	exists, err := h.resolver.Exists(ctx, certID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification check failed",
			"request_id", middleware.GetRequestID(ctx),
			"certificate_id", certID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "verification failed"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, verifyResponse{Exists: exists, CertificateID: certID})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	result, err := h.resolver.Resolve(r.Context(), chi.URLParam(r, "certificateID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

type scanRequest struct {
	Data string `json:"data"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.resolver.ResolveScan(r.Context(), req.Data)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
