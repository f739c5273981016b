package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"certmint/internal/certificate"
	"certmint/internal/identity"
	identitysvc "certmint/internal/identity/service"
)

// CertificateLister is the read side of the certificate store needed for
// backups.
type CertificateLister interface {
	List(ctx context.Context) ([]certificate.Certificate, error)
}

// Service backs the admin panel: user management, branding settings, and
// backup snapshots.
type Service struct {
	identities   *identitysvc.Service
	certificates CertificateLister
	settings     *SettingsStore
	backupDir    string
}

func New(identities *identitysvc.Service, certificates CertificateLister, settings *SettingsStore, backupDir string) *Service {
	return &Service{
		identities:   identities,
		certificates: certificates,
		settings:     settings,
		backupDir:    backupDir,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]identity.User, error) {
	return s.identities.List(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id string, in identitysvc.AdminUpdate) (identity.User, error) {
	return s.identities.ApplyAdminUpdate(ctx, id, in)
}

func (s *Service) Settings() (Settings, error) {
	return s.settings.Load()
}

func (s *Service) SetLogoURL(logoURL string) (Settings, error) {
	settings, err := s.settings.Load()
	if err != nil {
		return Settings{}, err
	}
	settings.LogoURL = logoURL
	settings.UpdatedAt = time.Now()
	if err := s.settings.Save(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

type backupDocument struct {
	GeneratedAt  time.Time                 `json:"generatedAt"`
	Users        []identity.User           `json:"users"`
	Certificates []certificate.Certificate `json:"certificates"`
}

// Backup snapshots users and certificates concurrently and writes them to a
// timestamped JSON artifact. Returns the artifact path.
func (s *Service) Backup(ctx context.Context) (string, error) {
	doc := backupDocument{GeneratedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.identities.List(gctx)
		if err != nil {
			return fmt.Errorf("snapshot users: %w", err)
		}
		doc.Users = users
		return nil
	})
	g.Go(func() error {
		certs, err := s.certificates.List(gctx)
		if err != nil {
			return fmt.Errorf("snapshot certificates: %w", err)
		}
		doc.Certificates = certs
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("backup dir: %w", err)
	}
	name := fmt.Sprintf("backup_%s.json", doc.GeneratedAt.Format("2006-01-02_150405"))
	path := filepath.Join(s.backupDir, name)

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
