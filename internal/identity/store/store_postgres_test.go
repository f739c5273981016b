package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	platformpg "certmint/internal/platform/postgres"
	"certmint/pkg/platform/sentinel"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("certmint_test"),
		tcpostgres.WithUsername("certmint"),
		tcpostgres.WithPassword("certmint"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpg.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, platformpg.EnsureSchema(ctx, db))
	return db
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	db := startPostgres(t)
	s := NewPostgres(db)
	ctx := context.Background()

	user := seedUser("u1", "9000000001", "a@example.com", "MOH202600001")
	require.NoError(t, s.Save(ctx, user))

	t.Run("duplicate mobile", func(t *testing.T) {
		dup := seedUser("u2", "9000000001", "b@example.com", "MOH202600002")
		assert.ErrorIs(t, s.Save(ctx, dup), sentinel.ErrDuplicate)
	})

	t.Run("find by id", func(t *testing.T) {
		found, err := s.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, user.MobileNo, found.MobileNo)

		_, err = s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("find by identifier", func(t *testing.T) {
		byMobile, err := s.FindByIdentifier(ctx, "9000000001")
		require.NoError(t, err)
		assert.Equal(t, "u1", byMobile.ID)

		byEmail, err := s.FindByIdentifier(ctx, "A@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", byEmail.ID)
	})

	t.Run("update", func(t *testing.T) {
		found, err := s.FindByID(ctx, "u1")
		require.NoError(t, err)
		found.State = "Kerala"
		require.NoError(t, s.Update(ctx, found))

		reread, err := s.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Kerala", reread.State)

		ghost := seedUser("missing", "9000000009", "z@example.com", "MOH202600009")
		assert.ErrorIs(t, s.Update(ctx, ghost), sentinel.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		users, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
