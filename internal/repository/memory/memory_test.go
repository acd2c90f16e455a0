package memory_test

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/internal/repository/memory"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_Links(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	link := &domain.Link{ShortCode: "abc123", OriginalURL: "https://example.com", IsActive: true}
	require.NoError(t, s.SaveLink(ctx, link))
	assert.NotZero(t, link.ID)

	assert.ErrorIs(t, s.SaveLink(ctx, &domain.Link{ShortCode: "abc123"}), repository.ErrAliasExists)

	got, err := s.FindActiveLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	got.OriginalURL = "mutated"

	again, err := s.FindActiveLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", again.OriginalURL)

	_, err = s.FindActiveLinkByCode(ctx, "zzzzzz")
	assert.ErrorIs(t, err, repository.ErrAliasNotFound)
}

func TestMemStorage_ClaimAndDeactivate(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	require.NoError(t, s.SaveLink(ctx, &domain.Link{ShortCode: "demo01", OriginalURL: "https://example.com", IsActive: true}))

	assert.ErrorIs(t, s.DeactivateLink(ctx, "demo01", 1), repository.ErrAliasNotFound)

	require.NoError(t, s.ClaimUnownedLink(ctx, "demo01", 1))
	require.NoError(t, s.ClaimUnownedLink(ctx, "demo01", 1))
	assert.ErrorIs(t, s.ClaimUnownedLink(ctx, "demo01", 2), repository.ErrAlreadyOwned)
	assert.ErrorIs(t, s.ClaimUnownedLink(ctx, "nope", 1), repository.ErrAliasNotFound)

	links, total, err := s.ListUserLinks(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, links, 1)

	require.NoError(t, s.DeactivateLink(ctx, "demo01", 1))
	_, err = s.FindActiveLinkByCode(ctx, "demo01")
	assert.ErrorIs(t, err, repository.ErrAliasNotFound)

	exists, err := s.AliasExists(ctx, "demo01")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemStorage_ListPagination(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := int64(3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveLink(ctx, &domain.Link{ShortCode: fmt.Sprintf("c%d", i), IsActive: true, UserID: &owner}))
	}

	links, total, err := s.ListUserLinks(ctx, owner, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, links, 2)
	assert.Equal(t, "c4", links[0].ShortCode)

	links, _, err = s.ListUserLinks(ctx, owner, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestMemStorage_ConcurrentClicks(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InsertClick(ctx, &domain.ClickEvent{URLID: 1})
		}()
	}
	wg.Wait()

	count, err := s.CountClicks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
	assert.Len(t, s.Clicks(1), 50)
}

func TestMemStorage_Users(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@example.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "a@example.com", "hash")
	assert.ErrorIs(t, err, repository.ErrUserExists)

	require.NoError(t, s.UpdateLastLogin(ctx, user.ID))
	got, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	_, err = s.GetUserByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
