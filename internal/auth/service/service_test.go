package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmint/internal/identity"
	identitysvc "certmint/internal/identity/service"
	identitystore "certmint/internal/identity/store"
	jwttoken "certmint/internal/jwt_token"
	dErrors "certmint/pkg/domain-errors"
)

func newAuthService(adminEmail, adminPassword string) (*Service, *identitysvc.Service) {
	identities := identitysvc.New(identitystore.NewMemory(), "MOH")
	tokens := jwttoken.NewJWTService("test-secret", "certmint-test")
	return New(identities, tokens, adminEmail, adminPassword), identities
}

func registerUser(t *testing.T, identities *identitysvc.Service) identity.User {
	t.Helper()
	user, err := identities.Register(context.Background(), identitysvc.RegisterInput{
		Name:     "Jane Doe",
		MobileNo: "9876543210",
		Email:    "jane@example.com",
	})
	require.NoError(t, err)
	return user
}

func TestLogin(t *testing.T) {
	svc, identities := newAuthService("", "")
	user := registerUser(t, identities)
	ctx := context.Background()

	t.Run("by mobile", func(t *testing.T) {
		result, err := svc.Login(ctx, "9876543210", "9876543210")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, user.ID, result.User.ID)
	})

	t.Run("by email", func(t *testing.T) {
		result, err := svc.Login(ctx, "Jane@Example.com", "9876543210")
		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
	})

	// Unknown identifier and wrong credential stay distinct outcomes.
	t.Run("unknown identifier", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "whatever")
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("wrong credential", func(t *testing.T) {
		_, err := svc.Login(ctx, "9876543210", "0000000000")
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}

func TestAdminLogin(t *testing.T) {
	svc, identities := newAuthService("Admin@Example.com", "s3cret-admin-pass")
	ctx := context.Background()

	result, err := svc.AdminLogin(ctx, "admin@example.com", "s3cret-admin-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, identity.RoleSuperAdmin, result.User.Role)

	// The bootstrap created a real user record.
	stored, err := identities.FindByIdentifier(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSuperAdmin, stored.Role)

	// Second login reuses it.
	again, err := svc.AdminLogin(ctx, "admin@example.com", "s3cret-admin-pass")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
}

func TestAdminLoginRejections(t *testing.T) {
	svc, _ := newAuthService("admin@example.com", "s3cret-admin-pass")
	ctx := context.Background()

	_, err := svc.AdminLogin(ctx, "admin@example.com", "wrong")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))

	_, err = svc.AdminLogin(ctx, "other@example.com", "s3cret-admin-pass")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestAdminLoginDisabledWithoutConfig(t *testing.T) {
	svc, _ := newAuthService("", "")

	_, err := svc.AdminLogin(context.Background(), "", "")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
