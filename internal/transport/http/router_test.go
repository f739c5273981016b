package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminhandler "certmint/internal/admin/handler"
	adminsvc "certmint/internal/admin/service"
	"certmint/internal/assets"
	"certmint/internal/audit"
	authhandler "certmint/internal/auth/handler"
	authsvc "certmint/internal/auth/service"
	certhandler "certmint/internal/certificate/handler"
	certsvc "certmint/internal/certificate/service"
	certstore "certmint/internal/certificate/store"
	identityhandler "certmint/internal/identity/handler"
	identitysvc "certmint/internal/identity/service"
	identitystore "certmint/internal/identity/store"
	jwttoken "certmint/internal/jwt_token"
	"certmint/internal/platform/metrics"
	"certmint/internal/verification"
	verificationhandler "certmint/internal/verification/handler"
)

type stubNotifier struct{}

func (stubNotifier) Send(context.Context, string, string, string) bool { return true }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	identities := identitysvc.New(identitystore.NewMemory(), "MOH")
	tokens := jwttoken.NewJWTService("test-secret", "certmint-test")
	jwtValidator := jwttoken.NewMiddlewareAdapter(tokens)
	authService := authsvc.New(identities, tokens, "admin@example.com", "bootstrap-pass")

	certificates := certstore.NewMemory()
	minter := certsvc.New(identities, certificates, stubNotifier{}, "https://certs.example.com", log, m)
	resolver := verification.New(certificates, identities, nil, "https://certs.example.com", m)

	dir := t.TempDir()
	adminService := adminsvc.New(
		identities,
		certificates,
		adminsvc.NewSettingsStore(filepath.Join(dir, "settings.json")),
		filepath.Join(dir, "backups"),
	)

	auditStore := audit.NewMemoryStore()
	publisher := audit.NewPublisher(auditStore, nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = publisher.Run(ctx) }()

	uploader := assets.NewMemory()

	return NewRouter(log, m, registry, Handlers{
		Auth:         authhandler.New(authService, log, m, publisher),
		Identity:     identityhandler.New(identities, uploader, stubNotifier{}, log, m, publisher, jwtValidator, "https://certs.example.com/login"),
		Certificate:  certhandler.New(minter, log, publisher, jwtValidator),
		Verification: verificationhandler.New(resolver, log),
		Admin:        adminhandler.New(adminService, uploader, auditStore, log, publisher, jwtValidator),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func registerViaAPI(t *testing.T, router http.Handler, name, mobile, email string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":             "Ms",
		"name":              name,
		"fatherHusbandName": "Guardian",
		"mobileNo":          mobile,
		"emailId":           email,
		"dateOfBirth":       "1995-04-12",
		"passoutPercentage": "87.5",
		"state":             "Kerala",
		"address":           "12 Main Street",
		"courseName":        "Nursing",
		"experience":        "2 years",
		"collegeName":       "City College",
	}
	for k, v := range fields {
		require.NoError(t, form.WriteField(k, v))
	}
	photo, err := form.CreateFormFile("photo", "photo.jpg")
	require.NoError(t, err)
	_, err = photo.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user map[string]any
	decode(t, w, &user)
	return user
}

func loginViaAPI(t *testing.T, router http.Handler, identifier, password string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistrationLoginAndMintFlow(t *testing.T) {
	router := newTestRouter(t)

	user := registerViaAPI(t, router, "Jane Doe", "9876543210", "jane@example.com")
	assert.NotEmpty(t, user["registrationNumber"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "memory://photos/photo.jpg", user["photoUrl"])

	token := loginViaAPI(t, router, "9876543210", "9876543210")

	// Minting requires a session.
	w := doJSON(t, router, http.MethodPost, "/api/certificate/generate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/certificate/generate", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cert struct {
		CertificateID string `json:"certificateId"`
		QRCodeDataURL string `json:"qrCodeDataUrl"`
		QRData        struct {
			Name            string `json:"name"`
			VerificationURL string `json:"verificationUrl"`
		} `json:"qrData"`
	}
	decode(t, w, &cert)
	assert.Regexp(t, `^CERT_\d+_[0-9a-z]{9}$`, cert.CertificateID)
	assert.Contains(t, cert.QRCodeDataURL, "data:image/png;base64,")
	assert.Equal(t, "Ms. Jane Doe", cert.QRData.Name)

	// Public verification, no auth header.
	w = doJSON(t, router, http.MethodGet, "/api/verify/"+cert.CertificateID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var verify struct {
		Exists bool `json:"exists"`
	}
	decode(t, w, &verify)
	assert.True(t, verify.Exists)

	w = doJSON(t, router, http.MethodGet, "/api/certificate/"+cert.CertificateID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/verify/scan", "", map[string]string{
		"data": cert.CertificateID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/verify/CERT_0_zzzzzzzzz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &verify)
	assert.False(t, verify.Exists)
}

func TestProfilePartialUpdate(t *testing.T) {
	router := newTestRouter(t)
	registerViaAPI(t, router, "Jane Doe", "9876543210", "jane@example.com")
	token := loginViaAPI(t, router, "9876543210", "9876543210")

	// A body carrying only one field must not wipe the others.
	w := doJSON(t, router, http.MethodPut, "/api/user/profile", token, map[string]any{
		"state": "Goa",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]any
	decode(t, w, &profile)
	assert.Equal(t, "Goa", profile["state"])
	assert.Equal(t, "Jane Doe", profile["name"])
	assert.Equal(t, "jane@example.com", profile["emailId"])
	assert.Equal(t, 87.5, profile["passoutPercentage"])

	// Provided fields are still validated.
	w = doJSON(t, router, http.MethodPut, "/api/user/profile", token, map[string]any{
		"emailId": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/user/profile", token, map[string]any{
		"passoutPercentage": 250,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFailureStatuses(t *testing.T) {
	router := newTestRouter(t)
	registerViaAPI(t, router, "Jane Doe", "9876543210", "jane@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "nobody@example.com",
		"password":   "whatever",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "9876543210",
		"password":   "0000000000",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "",
		"password":   "",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	router := newTestRouter(t)
	registerViaAPI(t, router, "Jane Doe", "9876543210", "jane@example.com")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("name", "Someone Else"))
	require.NoError(t, form.WriteField("mobileNo", "9876543210"))
	require.NoError(t, form.WriteField("emailId", "else@example.com"))
	photo, err := form.CreateFormFile("photo", "photo.jpg")
	require.NoError(t, err)
	_, _ = photo.Write([]byte("img"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	router := newTestRouter(t)
	user := registerViaAPI(t, router, "Jane Doe", "9876543210", "jane@example.com")
	userToken := loginViaAPI(t, router, "9876543210", "9876543210")

	// A regular session cannot reach the admin surface.
	w := doJSON(t, router, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "bootstrap-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var adminResp struct {
		Token string `json:"token"`
	}
	decode(t, w, &adminResp)

	w = doJSON(t, router, http.MethodGet, "/api/admin/users", adminResp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	decode(t, w, &users)
	assert.Len(t, users, 2) // registered user + provisioned admin

	// Restrict the user, then their mint attempt must be forbidden.
	userID := user["id"].(string)
	w = doJSON(t, router, http.MethodPatch, "/api/admin/users/"+userID, adminResp.Token, map[string]any{
		"isRestricted": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/certificate/generate", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/admin/backup", adminResp.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var backup struct {
		Path string `json:"path"`
	}
	decode(t, w, &backup)
	assert.NotEmpty(t, backup.Path)

	w = doJSON(t, router, http.MethodGet, "/api/admin/logo", adminResp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWrongAdminCredentials(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
