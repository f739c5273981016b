package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"certmint/internal/certificate"
	"certmint/internal/identity"
	"certmint/internal/notification"
	"certmint/internal/platform/metrics"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/sentinel"
)

// qrSize is the rendered QR edge in pixels; skip2 adds the quiet-zone
// border itself.
const qrSize = 200

// UserDirectory resolves the user whose attributes get frozen into the
// payload.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (identity.User, error)
}

// Store persists minted certificates.
type Store interface {
	Save(ctx context.Context, cert certificate.Certificate) error
	FindByID(ctx context.Context, id string) (certificate.Certificate, error)
}

// Notifier is advisory mail delivery; false means not delivered.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) bool
}

// Service is the certificate minter. Each call mints a fresh identity even
// for the same user; reissue after a data correction is a feature, so there
// is no one-per-user constraint.
type Service struct {
	users    UserDirectory
	store    Store
	notifier Notifier
	baseURL  string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(users UserDirectory, store Store, notifier Notifier, baseURL string, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:    users,
		store:    store,
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("certmint/certificate"),
	}
}

// Mint produces a new certificate for the user: a fresh identity, an
// immutable payload snapshot, and its QR encoding. The caller gets success
// as soon as persistence succeeds; the notification is best-effort and can
// neither fail nor roll back the mint.
func (s *Service) Mint(ctx context.Context, userID string) (certificate.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.mint")
	defer span.End()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return certificate.Certificate{}, err
	}
	if user.IsRestricted {
		return certificate.Certificate{}, dErrors.New(dErrors.CodeForbidden, "account is restricted")
	}

	now := time.Now()
	certID := certificate.NewCertificateID(now)
	span.SetAttributes(attribute.String("certificate.id", certID))

	verificationURL := s.baseURL + "/certificate/" + certID
	payload := certificate.Payload{
		CertificateID:      certID,
		Name:               user.DisplayName(),
		GuardianName:       user.GuardianName,
		RegistrationNumber: user.RegistrationNumber,
		MobileNo:           user.MobileNo,
		EmailID:            user.Email,
		DateOfBirth:        user.DateOfBirth,
		CourseName:         user.CourseName,
		CollegeName:        user.CollegeName,
		Experience:         user.Experience,
		PassoutPercentage:  strconv.FormatFloat(user.PassoutPercentage, 'f', -1, 64),
		State:              user.State,
		Address:            user.Address,
		IssueDate:          now.Format("02/01/2006"),
		VerificationURL:    verificationURL,
	}

	qrImage, err := encodePayload(payload)
	if err != nil {
		return certificate.Certificate{}, fmt.Errorf("encode payload: %w", err)
	}

	cert := certificate.Certificate{
		CertificateID:  certID,
		UserID:         user.ID,
		Payload:        payload,
		QRImageDataURL: qrImage,
		CreatedAt:      now,
	}

	if err := s.store.Save(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return certificate.Certificate{}, dErrors.New(dErrors.CodeConflict, "certificate id collision")
		}
		return certificate.Certificate{}, fmt.Errorf("save certificate: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CertificatesMinted.Inc()
	}

	if sent := s.notifier.Send(ctx, user.Email,
		"Certificate Generated Successfully",
		notification.CertificateEmail(user.DisplayName(), verificationURL),
	); !sent {
		s.logger.WarnContext(ctx, "certificate mail not delivered",
			"certificate_id", certID,
			"user_id", user.ID,
		)
	}

	return cert, nil
}

// Get returns a minted certificate by identity for the authenticated view.
func (s *Service) Get(ctx context.Context, certID string) (certificate.Certificate, error) {
	cert, err := s.store.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return certificate.Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return certificate.Certificate{}, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

// encodePayload renders the payload JSON as a QR PNG data URL, dark modules
// on light background.
func encodePayload(payload certificate.Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, qrSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
