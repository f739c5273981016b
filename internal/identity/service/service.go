package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"certmint/internal/identity"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/email"
	"certmint/pkg/platform/sentinel"
)

// Store is the persistence contract for user identities. Implementations
// must reject duplicate mobile numbers, emails, and registration numbers
// with sentinel.ErrDuplicate.
type Store interface {
	Save(ctx context.Context, user identity.User) error
	FindByID(ctx context.Context, id string) (identity.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (identity.User, error)
	Update(ctx context.Context, user identity.User) error
	List(ctx context.Context) ([]identity.User, error)
}

// Service owns the identity lifecycle: registration, lookup, profile edits,
// and credential verification. Handlers stay thin; stores stay pure I/O.
type Service struct {
	store     Store
	orgPrefix string
}

func New(store Store, orgPrefix string) *Service {
	return &Service{store: store, orgPrefix: orgPrefix}
}

// RegisterInput carries the registration form fields. The credential is the
// mobile number by scheme; Register hashes it and discards the plain value.
type RegisterInput struct {
	Title             string
	Name              string
	GuardianName      string
	MobileNo          string
	Email             string
	DateOfBirth       string
	PassoutPercentage float64
	State             string
	Address           string
	CourseName        string
	Experience        string
	CollegeName       string
	PhotoURL          string
	QRSeedURL         string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.User, error) {
	in.Email = email.Normalize(in.Email)

	// Pre-check both identifiers so the caller gets a conflict instead of a
	// generic failure. The store's unique constraints remain the backstop
	// for the race between check and insert.
	if _, err := s.store.FindByIdentifier(ctx, in.Email); err == nil {
		return identity.User{}, dErrors.New(dErrors.CodeConflict, "email already registered")
	}
	if _, err := s.store.FindByIdentifier(ctx, in.MobileNo); err == nil {
		return identity.User{}, dErrors.New(dErrors.CodeConflict, "mobile number already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.MobileNo), bcrypt.DefaultCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hash credential: %w", err)
	}

	now := time.Now()
	user := identity.User{
		ID:                 uuid.NewString(),
		Title:              in.Title,
		Name:               in.Name,
		GuardianName:       in.GuardianName,
		MobileNo:           in.MobileNo,
		Email:              in.Email,
		DateOfBirth:        in.DateOfBirth,
		PassoutPercentage:  in.PassoutPercentage,
		State:              in.State,
		Address:            in.Address,
		CourseName:         in.CourseName,
		Experience:         in.Experience,
		CollegeName:        in.CollegeName,
		PhotoURL:           in.PhotoURL,
		QRSeedURL:          in.QRSeedURL,
		RegistrationNumber: identity.NewRegistrationNumber(s.orgPrefix, now),
		Role:               identity.RoleUser,
		PasswordHash:       string(hash),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return identity.User{}, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return identity.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (identity.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (identity.User, error) {
	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return identity.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]identity.User, error) {
	return s.store.List(ctx)
}

// ProfileUpdate is the self-service field set. Nil pointers leave the stored
// field untouched, so a caller sending a subset cannot wipe the rest.
type ProfileUpdate struct {
	Name              *string
	Email             *string
	MobileNo          *string
	State             *string
	CollegeName       *string
	Experience        *string
	PassoutPercentage *float64
}

// UpdateProfile merges the provided fields into the record. Mobile and email
// uniqueness is re-checked against other records before committing.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (identity.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return identity.User{}, err
	}

	if in.Email != nil {
		normalized := email.Normalize(*in.Email)
		if err := s.checkIdentifierFree(ctx, normalized, id); err != nil {
			return identity.User{}, err
		}
		user.Email = normalized
	}
	if in.MobileNo != nil {
		if err := s.checkIdentifierFree(ctx, *in.MobileNo, id); err != nil {
			return identity.User{}, err
		}
		user.MobileNo = *in.MobileNo
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.State != nil {
		user.State = *in.State
	}
	if in.CollegeName != nil {
		user.CollegeName = *in.CollegeName
	}
	if in.Experience != nil {
		user.Experience = *in.Experience
	}
	if in.PassoutPercentage != nil {
		user.PassoutPercentage = *in.PassoutPercentage
	}
	user.UpdatedAt = time.Now()

	return s.commitUpdate(ctx, user)
}

// AdminUpdate is the broader partial field set available to administrators.
// Nil pointers leave the field untouched; the registration number is
// immutable and deliberately absent.
type AdminUpdate struct {
	Title             *string
	Name              *string
	GuardianName      *string
	MobileNo          *string
	Email             *string
	DateOfBirth       *string
	PassoutPercentage *float64
	State             *string
	Address           *string
	CourseName        *string
	Experience        *string
	CollegeName       *string
	PhotoURL          *string
	Role              *string
	IsRestricted      *bool
}

func (s *Service) ApplyAdminUpdate(ctx context.Context, id string, in AdminUpdate) (identity.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return identity.User{}, err
	}

	if in.Email != nil {
		normalized := email.Normalize(*in.Email)
		if err := s.checkIdentifierFree(ctx, normalized, id); err != nil {
			return identity.User{}, err
		}
		user.Email = normalized
	}
	if in.MobileNo != nil {
		if err := s.checkIdentifierFree(ctx, *in.MobileNo, id); err != nil {
			return identity.User{}, err
		}
		user.MobileNo = *in.MobileNo
	}
	if in.Title != nil {
		user.Title = *in.Title
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.GuardianName != nil {
		user.GuardianName = *in.GuardianName
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = *in.DateOfBirth
	}
	if in.PassoutPercentage != nil {
		user.PassoutPercentage = *in.PassoutPercentage
	}
	if in.State != nil {
		user.State = *in.State
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.CourseName != nil {
		user.CourseName = *in.CourseName
	}
	if in.Experience != nil {
		user.Experience = *in.Experience
	}
	if in.CollegeName != nil {
		user.CollegeName = *in.CollegeName
	}
	if in.PhotoURL != nil {
		user.PhotoURL = *in.PhotoURL
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsRestricted != nil {
		user.IsRestricted = *in.IsRestricted
	}
	user.UpdatedAt = time.Now()

	return s.commitUpdate(ctx, user)
}

// SetPhotoURL swaps the profile photo reference.
func (s *Service) SetPhotoURL(ctx context.Context, id, photoURL string) (identity.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return identity.User{}, err
	}
	user.PhotoURL = photoURL
	user.UpdatedAt = time.Now()
	return s.commitUpdate(ctx, user)
}

// VerifyCredential compares the candidate against the stored hash. Plaintext
// is never compared.
func (s *Service) VerifyCredential(user identity.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// ProvisionAdmin finds or creates the privileged record for the bootstrap
// admin email. This is a deliberate bootstrap mechanism, not a signup path:
// it only runs after the out-of-band credential pair has been validated.
func (s *Service) ProvisionAdmin(ctx context.Context, adminEmail, password string) (identity.User, error) {
	adminEmail = email.Normalize(adminEmail)

	user, err := s.store.FindByIdentifier(ctx, adminEmail)
	if err == nil {
		if user.Role != identity.RoleSuperAdmin {
			user.Role = identity.RoleSuperAdmin
			user.UpdatedAt = time.Now()
			return s.commitUpdate(ctx, user)
		}
		return user, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return identity.User{}, fmt.Errorf("find admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hash credential: %w", err)
	}

	now := time.Now()
	admin := identity.User{
		ID:                 uuid.NewString(),
		Name:               email.DeriveNameFromEmail(adminEmail),
		MobileNo:           "admin:" + uuid.NewString()[:10],
		Email:              adminEmail,
		RegistrationNumber: identity.NewRegistrationNumber(s.orgPrefix, now),
		Role:               identity.RoleSuperAdmin,
		PasswordHash:       string(hash),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Save(ctx, admin); err != nil {
		return identity.User{}, fmt.Errorf("provision admin: %w", err)
	}
	return admin, nil
}

func (s *Service) checkIdentifierFree(ctx context.Context, identifier, selfID string) error {
	existing, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check identifier: %w", err)
	}
	if existing.ID != selfID {
		return dErrors.New(dErrors.CodeConflict, "identifier already registered")
	}
	return nil
}

func (s *Service) commitUpdate(ctx context.Context, user identity.User) (identity.User, error) {
	if err := s.store.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrDuplicate):
			return identity.User{}, dErrors.New(dErrors.CodeConflict, "identifier already registered")
		case errors.Is(err, sentinel.ErrNotFound):
			return identity.User{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return identity.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
