package service

import (
	"context"
	"crypto/subtle"

	"certmint/internal/identity"
	identitysvc "certmint/internal/identity/service"
	jwttoken "certmint/internal/jwt_token"
	"certmint/internal/platform/config"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/email"
)

// Service validates credentials and mints session tokens. User sessions last
// seven days; admin sessions one day.
type Service struct {
	identities *identitysvc.Service
	tokens     *jwttoken.JWTService

	adminEmail    string
	adminPassword string
}

func New(identities *identitysvc.Service, tokens *jwttoken.JWTService, adminEmail, adminPassword string) *Service {
	return &Service{
		identities:    identities,
		tokens:        tokens,
		adminEmail:    email.Normalize(adminEmail),
		adminPassword: adminPassword,
	}
}

// LoginResult pairs the session token with a reduced user projection for the
// login response body.
type LoginResult struct {
	Token string
	User  identity.User
}

// Login authenticates by mobile number or email. The two failure kinds stay
// distinct on purpose: absent user is not-found, bad credential is
// unauthorized.
func (s *Service) Login(ctx context.Context, identifier, candidate string) (LoginResult, error) {
	user, err := s.identities.FindByIdentifier(ctx, identifier)
	if err != nil {
		return LoginResult{}, err
	}

	if !s.identities.VerifyCredential(user, candidate) {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.MobileNo, user.Role, config.UserTokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

// AdminLogin validates the configured bootstrap credential pair and
// auto-provisions the privileged user record on first success. Comparison is
// constant-time; a missing configuration disables the admin path entirely.
func (s *Service) AdminLogin(ctx context.Context, adminEmail, password string) (LoginResult, error) {
	if s.adminEmail == "" || s.adminPassword == "" {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid admin credentials")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email.Normalize(adminEmail)), []byte(s.adminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	if !emailOK || !passOK {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "invalid admin credentials")
	}

	admin, err := s.identities.ProvisionAdmin(ctx, s.adminEmail, password)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := s.tokens.GenerateToken(admin.ID, admin.Email, admin.MobileNo, identity.RoleSuperAdmin, config.AdminTokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: admin}, nil
}
