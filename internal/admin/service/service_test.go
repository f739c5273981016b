package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	certstore "certmint/internal/certificate/store"
	identitysvc "certmint/internal/identity/service"
	identitystore "certmint/internal/identity/store"
)

func newAdminService(t *testing.T) (*Service, *identitysvc.Service) {
	t.Helper()
	dir := t.TempDir()
	identities := identitysvc.New(identitystore.NewMemory(), "MOH")
	svc := New(
		identities,
		certstore.NewMemory(),
		NewSettingsStore(filepath.Join(dir, "settings.json")),
		filepath.Join(dir, "backups"),
	)
	return svc, identities
}

func TestSettingsRoundTrip(t *testing.T) {
	svc, _ := newAdminService(t)

	// Fresh install: defaults, no file.
	settings, err := svc.Settings()
	require.NoError(t, err)
	assert.Empty(t, settings.LogoURL)

	saved, err := svc.SetLogoURL("https://cdn.example.com/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/logo.png", saved.LogoURL)
	assert.False(t, saved.UpdatedAt.IsZero())

	reloaded, err := svc.Settings()
	require.NoError(t, err)
	assert.Equal(t, saved.LogoURL, reloaded.LogoURL)
}

func TestBackup(t *testing.T) {
	svc, identities := newAdminService(t)
	ctx := context.Background()

	_, err := identities.Register(ctx, identitysvc.RegisterInput{
		Name:     "Jane Doe",
		MobileNo: "9876543210",
		Email:    "jane@example.com",
	})
	require.NoError(t, err)

	path, err := svc.Backup(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `backup_\d{4}-\d{2}-\d{2}_\d{6}\.json$`, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		GeneratedAt  string            `json:"generatedAt"`
		Users        []json.RawMessage `json:"users"`
		Certificates []json.RawMessage `json:"certificates"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NotEmpty(t, doc.GeneratedAt)
	assert.Len(t, doc.Users, 1)
	assert.Empty(t, doc.Certificates)
}
