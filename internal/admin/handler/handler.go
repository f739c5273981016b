package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	adminsvc "certmint/internal/admin/service"
	"certmint/internal/assets"
	"certmint/internal/audit"
	"certmint/internal/identity"
	identitysvc "certmint/internal/identity/service"
	"certmint/internal/platform/middleware"
	"certmint/internal/transport/http/shared"
	dErrors "certmint/pkg/domain-errors"
)

const maxFormMemory = 10 << 20

// Service is the admin-panel contract.
type Service interface {
	ListUsers(ctx context.Context) ([]identity.User, error)
	UpdateUser(ctx context.Context, id string, in identitysvc.AdminUpdate) (identity.User, error)
	Settings() (adminsvc.Settings, error)
	SetLogoURL(logoURL string) (adminsvc.Settings, error)
	Backup(ctx context.Context) (string, error)
}

// Recorder accepts audit events; delivery is best-effort.
type Recorder interface {
	Record(ctx context.Context, event audit.Event)
}

// Handler serves the admin panel API. Every route re-validates the token and
// requires the super_admin role claim.
type Handler struct {
	admin        Service
	uploader     assets.Uploader
	trail        audit.Store
	logger       *slog.Logger
	audit        Recorder
	jwtValidator middleware.JWTValidator
}

func New(
	admin Service,
	uploader assets.Uploader,
	trail audit.Store,
	logger *slog.Logger,
	recorder Recorder,
	jwtValidator middleware.JWTValidator,
) *Handler {
	return &Handler{
		admin:        admin,
		uploader:     uploader,
		trail:        trail,
		logger:       logger,
		audit:        recorder,
		jwtValidator: jwtValidator,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireRole(identity.RoleSuperAdmin, h.logger))

		r.Get("/admin/users", h.handleListUsers)
		r.Patch("/admin/users/{userID}", h.handleUpdateUser)
		r.Get("/admin/users/{userID}/audit", h.handleUserAudit)
		r.Get("/admin/logo", h.handleGetLogo)
		r.Post("/admin/logo", h.handleUploadLogo)
		r.Post("/admin/backup", h.handleBackup)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list users failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list users"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, users)
}

type adminUpdateRequest struct {
	Title             *string  `json:"title"`
	Name              *string  `json:"name"`
	GuardianName      *string  `json:"fatherHusbandName"`
	MobileNo          *string  `json:"mobileNo"`
	Email             *string  `json:"emailId"`
	DateOfBirth       *string  `json:"dateOfBirth"`
	PassoutPercentage *float64 `json:"passoutPercentage"`
	State             *string  `json:"state"`
	Address           *string  `json:"address"`
	CourseName        *string  `json:"courseName"`
	Experience        *string  `json:"experience"`
	CollegeName       *string  `json:"collegeName"`
	PhotoURL          *string  `json:"photoUrl"`
	Role              *string  `json:"role"`
	IsRestricted      *bool    `json:"isRestricted"`
}

func (r adminUpdateRequest) validate() error {
	if r.Email != nil && !govalidator.IsEmail(*r.Email) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid email")
	}
	if r.MobileNo != nil && (!govalidator.IsNumeric(*r.MobileNo) || len(*r.MobileNo) != 10) {
		return dErrors.New(dErrors.CodeBadRequest, "mobile number must be 10 digits")
	}
	if r.PassoutPercentage != nil && !govalidator.InRangeFloat64(*r.PassoutPercentage, 0, 100) {
		return dErrors.New(dErrors.CodeBadRequest, "passout percentage must be between 0 and 100")
	}
	if r.Role != nil && *r.Role != identity.RoleUser && *r.Role != identity.RoleSuperAdmin {
		return dErrors.New(dErrors.CodeBadRequest, "unknown role")
	}
	return nil
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	var req adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, err := h.admin.UpdateUser(ctx, userID, identitysvc.AdminUpdate{
		Title:             req.Title,
		Name:              req.Name,
		GuardianName:      req.GuardianName,
		MobileNo:          req.MobileNo,
		Email:             req.Email,
		DateOfBirth:       req.DateOfBirth,
		PassoutPercentage: req.PassoutPercentage,
		State:             req.State,
		Address:           req.Address,
		CourseName:        req.CourseName,
		Experience:        req.Experience,
		CollegeName:       req.CollegeName,
		PhotoURL:          req.PhotoURL,
		Role:              req.Role,
		IsRestricted:      req.IsRestricted,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.audit.Record(ctx, audit.Event{
		UserID: userID,
		Actor:  middleware.GetUserID(ctx),
		Action: audit.ActionAdminUpdate,
	})
	shared.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUserAudit(w http.ResponseWriter, r *http.Request) {
	events, err := h.trail.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read audit trail"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleGetLogo(w http.ResponseWriter, r *http.Request) {
	settings, err := h.admin.Settings()
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read settings"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form data"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "logo file is required"))
		return
	}
	defer file.Close()

	if h.uploader == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeDependency, "object storage is not configured"))
		return
	}
	logoURL, err := h.uploader.Upload(ctx, "branding", header.Filename, file, header.Size, contentTypeOf(header))
	if err != nil {
		h.logger.ErrorContext(ctx, "logo upload failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeDependency, "logo upload failed"))
		return
	}

	settings, err := h.admin.SetLogoURL(logoURL)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to save settings"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}

type backupResponse struct {
	Path string `json:"path"`
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path, err := h.admin.Backup(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "backup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "backup failed"))
		return
	}

	h.audit.Record(ctx, audit.Event{
		Actor:  middleware.GetUserID(ctx),
		Action: audit.ActionBackup,
		Detail: path,
	})
	shared.WriteJSON(w, http.StatusCreated, backupResponse{Path: path})
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
