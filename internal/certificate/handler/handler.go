package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certmint/internal/audit"
	"certmint/internal/certificate"
	"certmint/internal/platform/middleware"
	"certmint/internal/transport/http/shared"
	dErrors "certmint/pkg/domain-errors"
)

// Minter issues certificates for authenticated users.
type Minter interface {
	Mint(ctx context.Context, userID string) (certificate.Certificate, error)
	Get(ctx context.Context, certID string) (certificate.Certificate, error)
}

// Recorder accepts audit events; delivery is best-effort.
type Recorder interface {
	Record(ctx context.Context, event audit.Event)
}

type Handler struct {
	minter       Minter
	logger       *slog.Logger
	audit        Recorder
	jwtValidator middleware.JWTValidator
}

func New(minter Minter, logger *slog.Logger, recorder Recorder, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{minter: minter, logger: logger, audit: recorder, jwtValidator: jwtValidator}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/certificate/generate", h.handleGenerate)
		r.Get("/certificate/own/{certificateID}", h.handleGet)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	cert, err := h.minter.Mint(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "mint rejected",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.audit.Record(ctx, audit.Event{
		UserID: userID,
		Actor:  userID,
		Action: audit.ActionMint,
		Detail: cert.CertificateID,
	})
	shared.WriteJSON(w, http.StatusCreated, cert)
}

// handleGet returns one of the caller's own certificates. Other users'
// certificates stay reachable only through the public verification view.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cert, err := h.minter.Get(ctx, chi.URLParam(r, "certificateID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if cert.UserID != middleware.GetUserID(ctx) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, cert)
}
