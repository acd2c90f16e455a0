//go:build integration

package postgres

import (
	"LinkLab-Backend/internal/database"
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("linklab"),
		tcpostgres.WithUsername("linklab"),
		tcpostgres.WithPassword("linklab"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))

	return db
}

func TestPostgres_LinkLifecycle(t *testing.T) {
	s := New(setupPostgres(t), zap.NewNop())
	ctx := context.Background()

	link := &domain.Link{
		ShortCode:     "abc123",
		OriginalURL:   "https://example.com",
		IsActive:      true,
		UTMParameters: &domain.UTMParameters{Campaign: "spring"},
	}
	require.NoError(t, s.SaveLink(ctx, link))

	err := s.SaveLink(ctx, &domain.Link{ShortCode: "abc123", OriginalURL: "https://other.com", IsActive: true})
	assert.ErrorIs(t, err, repository.ErrAliasExists)

	got, err := s.FindActiveLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "spring", got.UTMParameters.Campaign)

	require.NoError(t, s.InsertClick(ctx, &domain.ClickEvent{
		URLID:     got.ID,
		ClickedAt: time.Now(),
		IPAddress: "198.51.100.1",
		UserAgent: "integration",
		IsUnique:  true,
	}))
	count, err := s.CountClicks(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	owner, err := s.CreateUser(ctx, "owner@example.com", "hash")
	require.NoError(t, err)
	other, err := s.CreateUser(ctx, "other@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, s.ClaimUnownedLink(ctx, "abc123", owner.ID))
	assert.ErrorIs(t, s.ClaimUnownedLink(ctx, "abc123", other.ID), repository.ErrAlreadyOwned)

	require.NoError(t, s.DeactivateLink(ctx, "abc123", owner.ID))
	_, err = s.FindActiveLinkByCode(ctx, "abc123")
	assert.ErrorIs(t, err, repository.ErrAliasNotFound)
}

func TestPostgres_DuplicateUser(t *testing.T) {
	s := New(setupPostgres(t), zap.NewNop())
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "dup@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "dup@example.com", "hash")
	assert.ErrorIs(t, err, repository.ErrUserExists)
}
