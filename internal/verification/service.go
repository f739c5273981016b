package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"certmint/internal/certificate"
	"certmint/internal/identity"
	"certmint/internal/platform/metrics"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/sentinel"
)

// CertificateStore is the read side of the certificate store.
type CertificateStore interface {
	FindByID(ctx context.Context, id string) (certificate.Certificate, error)
}

// UserStore resolves the issued-to user for the public view.
type UserStore interface {
	FindByID(ctx context.Context, id string) (identity.User, error)
}

// Result is a resolved certificate plus the user it was issued to. The
// payload is the mint-time snapshot; the user record is current.
type Result struct {
	Certificate certificate.Certificate `json:"certificate"`
	User        identity.User           `json:"user"`
}

// Service resolves certificate identities for unauthenticated verification.
// Lookups that fail on either leg collapse to a single not-found outcome so
// the endpoint cannot be used to distinguish deleted users from bad ids.
type Service struct {
	certificates CertificateStore
	users        UserStore
	cache        *Cache
	baseHost     string
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

func New(certificates CertificateStore, users UserStore, cache *Cache, baseURL string, m *metrics.Metrics) *Service {
	return &Service{
		certificates: certificates,
		users:        users,
		cache:        cache,
		baseHost:     hostOf(baseURL),
		metrics:      m,
		tracer:       otel.Tracer("certmint/verification"),
	}
}

// Resolve returns the full verification result for a certificate id.
func (s *Service) Resolve(ctx context.Context, certID string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("certificate.id", certID))

	if cached, ok := s.cache.Get(ctx, certID); ok {
		s.count("cache_hit")
		return cached, nil
	}

	cert, err := s.certificates.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.count("not_found")
			return Result{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return Result{}, fmt.Errorf("find certificate: %w", err)
	}

	user, err := s.users.FindByID(ctx, cert.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.CodeOf(err) == dErrors.CodeNotFound {
			s.count("not_found")
			return Result{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return Result{}, fmt.Errorf("find certificate holder: %w", err)
	}

	result := Result{Certificate: cert, User: user}
	s.cache.Set(ctx, certID, result)
	s.count("resolved")
	return result, nil
}

// Exists reports whether a certificate id is known, without exposing the
// record. Errors other than not-found propagate.
func (s *Service) Exists(ctx context.Context, certID string) (bool, error) {
	_, err := s.Resolve(ctx, certID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResolveScan handles raw scanner input. Accepted shapes: a bare certificate
// id, a JSON object carrying certificateId, or a JSON object carrying
// verificationUrl. A URL is only followed when it points at this deployment
// or at loopback; anything else is rejected rather than proxied.
func (s *Service) ResolveScan(ctx context.Context, raw string) (Result, error) {
	certID, err := s.extractID(strings.TrimSpace(raw))
	if err != nil {
		s.count("rejected")
		return Result{}, err
	}
	return s.Resolve(ctx, certID)
}

type scanPayload struct {
	CertificateID   string `json:"certificateId"`
	VerificationURL string `json:"verificationUrl"`
}

func (s *Service) extractID(raw string) (string, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "empty scan data")
	}
	if !strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	var payload scanPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", dErrors.New(dErrors.CodeBadRequest, "unrecognized scan data")
	}
	if payload.CertificateID != "" {
		return payload.CertificateID, nil
	}
	if payload.VerificationURL != "" {
		return s.idFromURL(payload.VerificationURL)
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "unrecognized scan data")
}

func (s *Service) idFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid verification url")
	}
	if !s.trustedHost(parsed.Hostname()) {
		return "", dErrors.New(dErrors.CodeBadRequest, "verification url points at a foreign domain")
	}
	certID := path.Base(parsed.Path)
	if certID == "" || certID == "/" || certID == "." {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid verification url")
	}
	return certID, nil
}

func (s *Service) trustedHost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	return s.baseHost != "" && strings.EqualFold(host, s.baseHost)
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.VerificationLookups.WithLabelValues(outcome).Inc()
	}
}

func hostOf(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
