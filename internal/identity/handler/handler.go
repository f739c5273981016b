package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"certmint/internal/assets"
	"certmint/internal/audit"
	identitysvc "certmint/internal/identity/service"
	"certmint/internal/notification"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	"certmint/internal/transport/http/shared"
	dErrors "certmint/pkg/domain-errors"
)

const maxFormMemory = 10 << 20

// Notifier is advisory mail delivery.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) bool
}

// Recorder accepts audit events; delivery is best-effort.
type Recorder interface {
	Record(ctx context.Context, event audit.Event)
}

type Handler struct {
	identities   *identitysvc.Service
	uploader     assets.Uploader
	notifier     Notifier
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        Recorder
	jwtValidator middleware.JWTValidator
	loginURL     string
}

func New(
	identities *identitysvc.Service,
	uploader assets.Uploader,
	notifier Notifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder Recorder,
	jwtValidator middleware.JWTValidator,
	loginURL string,
) *Handler {
	return &Handler{
		identities:   identities,
		uploader:     uploader,
		notifier:     notifier,
		logger:       logger,
		metrics:      m,
		audit:        recorder,
		jwtValidator: jwtValidator,
		loginURL:     loginURL,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/user/profile", h.handleGetProfile)
		r.Put("/user/profile", h.handleUpdateProfile)
		r.Post("/user/photo", h.handleUploadPhoto)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form data"))
		return
	}

	in, err := registerInputFromForm(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// The profile photo is mandatory; a storage failure fails the whole
	// registration. The QR seed image is decorative and best-effort.
	photoURL, err := h.storeFile(ctx, r, "photo", "photos")
	if err != nil {
		h.logger.ErrorContext(ctx, "photo upload failed", "request_id", requestID, "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	in.PhotoURL = photoURL

	if seedURL, err := h.storeFile(ctx, r, "qrCode", "qr-seeds"); err == nil {
		in.QRSeedURL = seedURL
	} else if !dErrors.Is(err, dErrors.CodeBadRequest) {
		h.logger.WarnContext(ctx, "qr seed upload failed", "request_id", requestID, "error", err.Error())
	}

	user, err := h.identities.Register(ctx, in)
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.metrics.UsersRegistered.Inc()
	h.audit.Record(ctx, audit.Event{
		UserID: user.ID,
		Actor:  user.ID,
		Action: audit.ActionRegister,
	})

	if sent := h.notifier.Send(ctx, user.Email,
		"Registration Successful",
		notification.RegistrationEmail(user.DisplayName(), h.loginURL),
	); !sent {
		h.logger.WarnContext(ctx, "welcome mail not delivered", "request_id", requestID, "user_id", user.ID)
	}

	shared.WriteJSON(w, http.StatusCreated, user)
}

func registerInputFromForm(r *http.Request) (identitysvc.RegisterInput, error) {
	in := identitysvc.RegisterInput{
		Title:        r.FormValue("title"),
		Name:         r.FormValue("name"),
		GuardianName: r.FormValue("fatherHusbandName"),
		MobileNo:     r.FormValue("mobileNo"),
		Email:        r.FormValue("emailId"),
		DateOfBirth:  r.FormValue("dateOfBirth"),
		State:        r.FormValue("state"),
		Address:      r.FormValue("address"),
		CourseName:   r.FormValue("courseName"),
		Experience:   r.FormValue("experience"),
		CollegeName:  r.FormValue("collegeName"),
	}

	if in.Name == "" {
		return in, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !govalidator.IsEmail(in.Email) {
		return in, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if !govalidator.IsNumeric(in.MobileNo) || len(in.MobileNo) != 10 {
		return in, dErrors.New(dErrors.CodeBadRequest, "mobile number must be 10 digits")
	}

	if raw := r.FormValue("passoutPercentage"); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || !govalidator.InRangeFloat64(pct, 0, 100) {
			return in, dErrors.New(dErrors.CodeBadRequest, "passout percentage must be between 0 and 100")
		}
		in.PassoutPercentage = pct
	}
	return in, nil
}

// storeFile uploads one multipart file field. A missing field maps to
// bad_request so callers can distinguish absence from storage failure.
func (h *Handler) storeFile(ctx context.Context, r *http.Request, field, folder string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", dErrors.New(dErrors.CodeBadRequest, field+" file is required")
	}
	defer file.Close()

	if h.uploader == nil {
		return "", dErrors.New(dErrors.CodeDependency, "object storage is not configured")
	}
	url, err := h.uploader.Upload(ctx, folder, header.Filename, file, header.Size, contentTypeOf(header))
	if err != nil {
		return "", dErrors.New(dErrors.CodeDependency, "file upload failed")
	}
	return url, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.identities.FindByID(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

// profileUpdateRequest carries the self-service fields. Absent keys stay nil
// and leave the stored value alone; only provided fields are validated.
type profileUpdateRequest struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"emailId"`
	MobileNo          *string  `json:"mobileNo"`
	State             *string  `json:"state"`
	CollegeName       *string  `json:"collegeName"`
	Experience        *string  `json:"experience"`
	PassoutPercentage *float64 `json:"passoutPercentage"`
}

func (r profileUpdateRequest) validate() error {
	if r.Name != nil && *r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name must not be empty")
	}
	if r.Email != nil && !govalidator.IsEmail(*r.Email) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid email")
	}
	if r.MobileNo != nil && (!govalidator.IsNumeric(*r.MobileNo) || len(*r.MobileNo) != 10) {
		return dErrors.New(dErrors.CodeBadRequest, "mobile number must be 10 digits")
	}
	if r.PassoutPercentage != nil && !govalidator.InRangeFloat64(*r.PassoutPercentage, 0, 100) {
		return dErrors.New(dErrors.CodeBadRequest, "passout percentage must be between 0 and 100")
	}
	return nil
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		shared.WriteError(w, err)
		return
	}

	user, err := h.identities.UpdateProfile(ctx, middleware.GetUserID(ctx), identitysvc.ProfileUpdate{
		Name:              req.Name,
		Email:             req.Email,
		MobileNo:          req.MobileNo,
		State:             req.State,
		CollegeName:       req.CollegeName,
		Experience:        req.Experience,
		PassoutPercentage: req.PassoutPercentage,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form data"))
		return
	}
	photoURL, err := h.storeFile(ctx, r, "photo", "photos")
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	user, err := h.identities.SetPhotoURL(ctx, middleware.GetUserID(ctx), photoURL)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, user)
}
