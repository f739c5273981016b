package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"certmint/internal/audit"
	authsvc "certmint/internal/auth/service"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	"certmint/internal/transport/http/shared"
	dErrors "certmint/pkg/domain-errors"
)

// Service is the credential-checking contract the handler depends on.
type Service interface {
	Login(ctx context.Context, identifier, candidate string) (authsvc.LoginResult, error)
	AdminLogin(ctx context.Context, adminEmail, password string) (authsvc.LoginResult, error)
}

// Recorder accepts audit events; delivery is best-effort.
type Recorder interface {
	Record(ctx context.Context, event audit.Event)
}

type Handler struct {
	auth    Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   Recorder
}

func New(auth Service, logger *slog.Logger, m *metrics.Metrics, recorder Recorder) *Handler {
	return &Handler{auth: auth, logger: logger, metrics: m, audit: recorder}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/admin/login", h.handleAdminLogin)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Identifier == "" || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identifier and password are required"))
		return
	}
	if !govalidator.IsEmail(req.Identifier) && !govalidator.IsNumeric(req.Identifier) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identifier must be an email or mobile number"))
		return
	}

	result, err := h.auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		h.logger.WarnContext(ctx, "login failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.audit.Record(ctx, audit.Event{
		UserID: result.User.ID,
		Actor:  result.User.ID,
		Action: audit.ActionLogin,
	})
	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: result.Token, User: result.User})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	result, err := h.auth.AdminLogin(ctx, req.Email, req.Password)
	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues("admin_failure").Inc()
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	h.metrics.LoginAttempts.WithLabelValues("admin_success").Inc()
	h.audit.Record(ctx, audit.Event{
		UserID: result.User.ID,
		Actor:  result.User.ID,
		Action: audit.ActionAdminLogin,
	})
	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: result.Token, User: result.User})
}
