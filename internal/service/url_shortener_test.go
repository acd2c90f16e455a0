package service

import (
	"LinkLab-Backend/internal/config"
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/internal/repository/demo"
	"LinkLab-Backend/internal/repository/memory"
	"LinkLab-Backend/internal/repository/mocks"
	"LinkLab-Backend/pkg/pagemeta"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shortenerConfig() *config.URLShortener {
	return &config.URLShortener{
		BaseURL:        "https://lnk.example/",
		CodeLength:     9,
		MaxAliasLength: 50,
		DemoDurable:    true,
		QRSize:         64,
	}
}

type stubFetcher struct {
	calls int
	meta  pagemeta.Metadata
}

func (f *stubFetcher) Fetch(context.Context, string) *pagemeta.Metadata {
	f.calls++
	out := f.meta
	return &out
}

// scriptedCodes returns the given codes in order and then fails.
func scriptedCodes(codes ...string) func(int) (string, error) {
	var mu sync.Mutex
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return "", errors.New("out of codes")
		}
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func TestShorten_GeneratedCode(t *testing.T) {
	storage := memory.New()
	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop())

	link, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com/a"})
	require.NoError(t, err)

	assert.Len(t, link.ShortCode, 9)
	assert.Nil(t, link.CustomAlias)
	require.NotNil(t, link.UserID)
	assert.Equal(t, int64(1), *link.UserID)
	assert.True(t, link.IsActive)
	require.NotNil(t, link.QRCodeURL)
	assert.True(t, strings.HasPrefix(*link.QRCodeURL, "data:image/png;base64,"))

	stored, err := storage.FindActiveLinkByCode(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", stored.OriginalURL)
}

func TestShorten_RetriesOnCollision(t *testing.T) {
	storage := new(mocks.MockStorage)
	storage.On("SaveLink", mock.Anything, mock.Anything).Return(repository.ErrAliasExists).Twice()
	storage.On("SaveLink", mock.Anything, mock.Anything).Return(nil).Once()

	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop(),
		WithCodeGenerator(scriptedCodes("aaaaaaaaa", "bbbbbbbbb", "ccccccccc")),
	)

	link, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ccccccccc", link.ShortCode)
	storage.AssertNumberOfCalls(t, "SaveLink", 3)
}

func TestShorten_RetryExhausted(t *testing.T) {
	storage := new(mocks.MockStorage)
	storage.On("SaveLink", mock.Anything, mock.Anything).Return(repository.ErrAliasExists)

	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop())

	_, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrCodeGenerationExhausted)
	storage.AssertNumberOfCalls(t, "SaveLink", maxRetries)
}

func TestShorten_SkipsCodesHeldByRegistry(t *testing.T) {
	registry := demo.NewRegistry()
	require.NoError(t, registry.Put("taken0001", domain.DemoLinkEntry{OriginalURL: "https://a.example"}))

	s := NewURLShortener(memory.New(), registry, shortenerConfig(), zap.NewNop(),
		WithCodeGenerator(scriptedCodes("taken0001", "free00001")),
	)

	link, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "free00001", link.ShortCode)
}

func TestShorten_StorageErrorIsNotRetried(t *testing.T) {
	storage := new(mocks.MockStorage)
	storage.On("SaveLink", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop())

	_, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeGenerationExhausted)
	storage.AssertNumberOfCalls(t, "SaveLink", 1)
}

func TestShorten_CustomAlias(t *testing.T) {
	storage := memory.New()
	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	link, err := s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "https://example.com", CustomAlias: "my-link"})
	require.NoError(t, err)
	assert.Equal(t, "my-link", link.ShortCode)
	require.NotNil(t, link.CustomAlias)
	assert.Equal(t, "my-link", *link.CustomAlias)

	_, err = s.Shorten(ctx, 2, CreateLinkInput{OriginalURL: "https://other.example", CustomAlias: "my-link"})
	assert.ErrorIs(t, err, repository.ErrAliasExists)
}

func TestShorten_CustomAliasHeldByRegistry(t *testing.T) {
	registry := demo.NewRegistry()
	require.NoError(t, registry.Put("promo", domain.DemoLinkEntry{OriginalURL: "https://a.example"}))

	s := NewURLShortener(memory.New(), registry, shortenerConfig(), zap.NewNop())

	_, err := s.Shorten(context.Background(), 1, CreateLinkInput{OriginalURL: "https://example.com", CustomAlias: "promo"})
	assert.ErrorIs(t, err, repository.ErrAliasExists)
}

func TestShorten_ConcurrentCustomAlias(t *testing.T) {
	s := NewURLShortener(memory.New(), demo.NewRegistry(), shortenerConfig(), zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Shorten(context.Background(), int64(i+1), CreateLinkInput{
				OriginalURL: "https://example.com",
				CustomAlias: "promo",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrAliasExists):
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
}

func TestShorten_Validation(t *testing.T) {
	s := NewURLShortener(memory.New(), demo.NewRegistry(), shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	_, err := s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "javascript:alert(1)"})
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "https://example.com", CustomAlias: "bad alias"})
	assert.ErrorIs(t, err, ErrInvalidAlias)
}

func TestShorten_Metadata(t *testing.T) {
	fetcher := &stubFetcher{meta: pagemeta.Metadata{
		Title:       "Fetched",
		Description: "From page",
		FaviconURL:  "https://example.com/favicon.ico",
	}}
	s := NewURLShortener(memory.New(), demo.NewRegistry(), shortenerConfig(), zap.NewNop(),
		WithMetadataFetcher(fetcher),
	)
	ctx := context.Background()

	link, err := s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "https://example.com", Title: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, "Mine", *link.Title)
	assert.Equal(t, "From page", *link.Description)
	assert.Equal(t, "https://example.com/favicon.ico", *link.FaviconURL)
	assert.Equal(t, 1, fetcher.calls)

	_, err = s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "https://example.com", Title: "T", Description: "D"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "no fetch when title and description are given")
}

func TestShortenAnonymous_Durable(t *testing.T) {
	storage := memory.New()
	registry := demo.NewRegistry()
	s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())

	entry, err := s.ShortenAnonymous(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Len(t, entry.ShortCode, 9)
	assert.NotEmpty(t, entry.QRCodeURL)

	link, err := storage.FindActiveLinkByCode(context.Background(), entry.ShortCode)
	require.NoError(t, err)
	assert.Nil(t, link.UserID)
	assert.Equal(t, 0, registry.Len())
}

func TestShortenAnonymous_RegistryWhenNotDurable(t *testing.T) {
	cfg := shortenerConfig()
	cfg.DemoDurable = false
	storage := memory.New()
	registry := demo.NewRegistry()
	s := NewURLShortener(storage, registry, cfg, zap.NewNop())

	entry, err := s.ShortenAnonymous(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.True(t, registry.Has(entry.ShortCode))
	exists, err := storage.AliasExists(context.Background(), entry.ShortCode)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShortenAnonymous_FallsBackOnStorageError(t *testing.T) {
	storage := new(mocks.MockStorage)
	storage.On("SaveLink", mock.Anything, mock.Anything).Return(errors.New("db down"))
	storage.On("AliasExists", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	registry := demo.NewRegistry()
	s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())

	entry, err := s.ShortenAnonymous(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, registry.Has(entry.ShortCode))
}

func TestClaimLink(t *testing.T) {
	storage := memory.New()
	registry := demo.NewRegistry()
	s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	entry, err := s.ShortenAnonymous(ctx, "https://example.com")
	require.NoError(t, err)

	require.NoError(t, s.ClaimLink(ctx, entry.ShortCode, 7))
	require.NoError(t, s.ClaimLink(ctx, entry.ShortCode, 7), "claim is idempotent for the owner")
	assert.ErrorIs(t, s.ClaimLink(ctx, entry.ShortCode, 8), repository.ErrAlreadyOwned)
	assert.ErrorIs(t, s.ClaimLink(ctx, "zzzzzz", 7), repository.ErrAliasNotFound)

	link, err := storage.FindActiveLinkByCode(ctx, entry.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *link.UserID)
}

func TestClaimLink_PromotesRegistryEntry(t *testing.T) {
	storage := memory.New()
	registry := demo.NewRegistry()
	require.NoError(t, registry.Put("demo1234", domain.DemoLinkEntry{
		OriginalURL: "https://example.com/demo",
		Title:       "Demo",
	}))
	s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.ClaimLink(ctx, "demo1234", 3))

	assert.False(t, registry.Has("demo1234"))
	link, err := storage.FindActiveLinkByCode(ctx, "demo1234")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/demo", link.OriginalURL)
	assert.Equal(t, int64(3), *link.UserID)
	assert.Equal(t, "Demo", *link.Title)
}

func TestClaimLink_ConcurrentPromotionBySameOwner(t *testing.T) {
	storage := memory.New()
	registry := demo.NewRegistry()
	require.NoError(t, registry.Put("demo5678", domain.DemoLinkEntry{OriginalURL: "https://example.com/race"}))
	s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.ClaimLink(ctx, "demo5678", 5)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	link, err := storage.FindActiveLinkByCode(ctx, "demo5678")
	require.NoError(t, err)
	assert.Equal(t, int64(5), *link.UserID)
}

func TestClaimLink_PromotionConflict(t *testing.T) {
	tests := []struct {
		name      string
		recheck   error
		wantError error
	}{
		{"same owner won the race", nil, nil},
		{"another owner won the race", repository.ErrAlreadyOwned, repository.ErrAlreadyOwned},
		{"winner no longer active", repository.ErrAliasNotFound, repository.ErrAlreadyOwned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(mocks.MockStorage)
			storage.On("ClaimUnownedLink", mock.Anything, "demo9999", int64(4)).
				Return(repository.ErrAliasNotFound).Once()
			storage.On("SaveLink", mock.Anything, mock.AnythingOfType("*domain.Link")).
				Return(repository.ErrAliasExists).Once()
			storage.On("ClaimUnownedLink", mock.Anything, "demo9999", int64(4)).
				Return(tt.recheck).Once()

			registry := demo.NewRegistry()
			require.NoError(t, registry.Put("demo9999", domain.DemoLinkEntry{OriginalURL: "https://example.com"}))
			s := NewURLShortener(storage, registry, shortenerConfig(), zap.NewNop())

			err := s.ClaimLink(context.Background(), "demo9999", 4)
			if tt.wantError == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantError)
			}
			storage.AssertNumberOfCalls(t, "ClaimUnownedLink", 2)
		})
	}
}

func TestDeactivateAndList(t *testing.T) {
	storage := memory.New()
	s := NewURLShortener(storage, demo.NewRegistry(), shortenerConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Shorten(ctx, 1, CreateLinkInput{OriginalURL: "https://example.com"})
		require.NoError(t, err)
	}
	links, total, err := s.ListLinks(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, links, 2)

	assert.ErrorIs(t, s.DeactivateLink(ctx, links[0].ShortCode, 2), repository.ErrAliasNotFound)
	require.NoError(t, s.DeactivateLink(ctx, links[0].ShortCode, 1))

	_, err = storage.FindActiveLinkByCode(ctx, links[0].ShortCode)
	assert.ErrorIs(t, err, repository.ErrAliasNotFound)
}

func TestShortURL(t *testing.T) {
	s := NewURLShortener(memory.New(), demo.NewRegistry(), shortenerConfig(), zap.NewNop())
	assert.Equal(t, "https://lnk.example/abc123", s.ShortURL("abc123"))
}
