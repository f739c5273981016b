package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	certstore "certmint/internal/certificate/store"
	identitysvc "certmint/internal/identity/service"
	identitystore "certmint/internal/identity/store"
	"certmint/internal/platform/metrics"
	dErrors "certmint/pkg/domain-errors"
)

type fakeNotifier struct {
	sent     []string
	delivers bool
}

func (f *fakeNotifier) Send(_ context.Context, to, _, _ string) bool {
	f.sent = append(f.sent, to)
	return f.delivers
}

type fixture struct {
	minter     *Service
	identities *identitysvc.Service
	notifier   *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	identities := identitysvc.New(identitystore.NewMemory(), "MOH")
	notifier := &fakeNotifier{delivers: true}
	minter := New(
		identities,
		certstore.NewMemory(),
		notifier,
		"https://certs.example.com",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.New(prometheus.NewRegistry()),
	)
	return &fixture{minter: minter, identities: identities, notifier: notifier}
}

func (f *fixture) registerUser(t *testing.T) string {
	t.Helper()
	user, err := f.identities.Register(context.Background(), identitysvc.RegisterInput{
		Title:             "Ms",
		Name:              "Jane Doe",
		GuardianName:      "John Doe",
		MobileNo:          "9876543210",
		Email:             "jane@example.com",
		DateOfBirth:       "1995-04-12",
		PassoutPercentage: 87.5,
		State:             "Kerala",
		CourseName:        "Nursing",
		CollegeName:       "City College",
	})
	require.NoError(t, err)
	return user.ID
}

func TestMint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.registerUser(t)

	cert, err := f.minter.Mint(ctx, userID)
	require.NoError(t, err)

	assert.Regexp(t, `^CERT_\d+_[0-9a-z]{9}$`, cert.CertificateID)
	assert.Equal(t, userID, cert.UserID)
	assert.True(t, strings.HasPrefix(cert.QRImageDataURL, "data:image/png;base64,"))

	payload := cert.Payload
	assert.Equal(t, cert.CertificateID, payload.CertificateID)
	assert.Equal(t, "Ms. Jane Doe", payload.Name)
	assert.Equal(t, "87.5", payload.PassoutPercentage)
	assert.Equal(t, "https://certs.example.com/certificate/"+cert.CertificateID, payload.VerificationURL)
	assert.Regexp(t, `^\d{2}/\d{2}/\d{4}$`, payload.IssueDate)

	assert.Equal(t, []string{"jane@example.com"}, f.notifier.sent)
}

func TestMintIsRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.registerUser(t)

	first, err := f.minter.Mint(ctx, userID)
	require.NoError(t, err)
	second, err := f.minter.Mint(ctx, userID)
	require.NoError(t, err)

	assert.NotEqual(t, first.CertificateID, second.CertificateID)
}

func TestMintSnapshotIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.registerUser(t)

	cert, err := f.minter.Mint(ctx, userID)
	require.NoError(t, err)

	newName := "Renamed"
	newEmail := "renamed@example.com"
	newPct := 90.0
	_, err = f.identities.UpdateProfile(ctx, userID, identitysvc.ProfileUpdate{
		Name:              &newName,
		Email:             &newEmail,
		PassoutPercentage: &newPct,
	})
	require.NoError(t, err)

	// The stored certificate keeps the mint-time attributes.
	stored, err := f.minter.Get(ctx, cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "Ms. Jane Doe", stored.Payload.Name)
	assert.Equal(t, "jane@example.com", stored.Payload.EmailID)
}

func TestMintUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.minter.Mint(context.Background(), "missing")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestMintRestrictedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.registerUser(t)

	restricted := true
	_, err := f.identities.ApplyAdminUpdate(ctx, userID, identitysvc.AdminUpdate{IsRestricted: &restricted})
	require.NoError(t, err)

	_, err = f.minter.Mint(ctx, userID)
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestMintSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.delivers = false
	ctx := context.Background()
	userID := f.registerUser(t)

	cert, err := f.minter.Mint(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.CertificateID)
}

func TestGetUnknownCertificate(t *testing.T) {
	f := newFixture(t)

	_, err := f.minter.Get(context.Background(), "CERT_0_aaaaaaaaa")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
