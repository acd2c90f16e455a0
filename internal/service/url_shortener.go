package service

import (
	"LinkLab-Backend/internal/config"
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/pkg/pagemeta"
	"LinkLab-Backend/pkg/qr"
	"LinkLab-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxRetries = 5

var ErrCodeGenerationExhausted = errors.New("failed to generate a unique short code")

type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) *pagemeta.Metadata
}

type LinkObserver interface {
	ObserveLinkCreated(kind string)
}

// CreateLinkInput is an authenticated create request. Nil optional fields
// are left unset on the link.
type CreateLinkInput struct {
	OriginalURL   string
	CustomAlias   string
	Title         string
	Description   string
	ExpiryDate    *time.Time
	ClickLimit    *int64
	Password      *string
	CampaignID    *int64
	UTMParameters *domain.UTMParameters
}

type URLShortenerService struct {
	storage  repository.LinkStorage
	registry repository.DemoRegistry
	config   *config.URLShortener
	metadata MetadataFetcher
	observer LinkObserver
	log      *zap.Logger
	newCode  func(length int) (string, error)
}

type ShortenerOption func(*URLShortenerService)

func WithMetadataFetcher(f MetadataFetcher) ShortenerOption {
	return func(s *URLShortenerService) { s.metadata = f }
}

func WithLinkObserver(o LinkObserver) ShortenerOption {
	return func(s *URLShortenerService) { s.observer = o }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func(length int) (string, error)) ShortenerOption {
	return func(s *URLShortenerService) { s.newCode = gen }
}

func NewURLShortener(
	storage repository.LinkStorage,
	registry repository.DemoRegistry,
	cfg *config.URLShortener,
	log *zap.Logger,
	opts ...ShortenerOption,
) *URLShortenerService {
	s := &URLShortenerService{
		storage:  storage,
		registry: registry,
		config:   cfg,
		log:      log,
		newCode:  random.NewRandomString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shorten creates a link owned by ownerID. A custom alias is inserted as is
// and a collision returns repository.ErrAliasExists. Generated codes are
// retried on collision up to maxRetries times.
func (s *URLShortenerService) Shorten(ctx context.Context, ownerID int64, in CreateLinkInput) (*domain.Link, error) {
	if err := ValidateURL(in.OriginalURL); err != nil {
		return nil, err
	}
	if in.CustomAlias != "" {
		if err := ValidateAlias(in.CustomAlias, s.config.MaxAliasLength); err != nil {
			return nil, err
		}
	}

	link := &domain.Link{
		OriginalURL:   in.OriginalURL,
		UserID:        &ownerID,
		IsActive:      true,
		ExpiryDate:    in.ExpiryDate,
		ClickLimit:    in.ClickLimit,
		Password:      in.Password,
		CampaignID:    in.CampaignID,
		UTMParameters: in.UTMParameters,
	}
	s.applyMetadata(ctx, link, in.Title, in.Description)

	if in.CustomAlias != "" {
		if s.registry.Has(in.CustomAlias) {
			return nil, repository.ErrAliasExists
		}

		alias := in.CustomAlias
		link.ShortCode = alias
		link.CustomAlias = &alias
		link.QRCodeURL = s.qrCode(alias)

		if err := s.storage.SaveLink(ctx, link); err != nil {
			if errors.Is(err, repository.ErrAliasExists) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to save link: %w", err)
		}
		s.observe("owned")
		return link, nil
	}

	for i := 0; i < maxRetries; i++ {
		code, err := s.nextCode()
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}

		link.ShortCode = code
		link.QRCodeURL = s.qrCode(code)

		err = s.storage.SaveLink(ctx, link)
		if err == nil {
			s.observe("owned")
			return link, nil
		}
		if !errors.Is(err, repository.ErrAliasExists) {
			return nil, fmt.Errorf("failed to save link: %w", err)
		}
		s.log.Debug("short code collision, retrying", zap.String("short_code", code), zap.Int("attempt", i+1))
	}

	return nil, ErrCodeGenerationExhausted
}

// ShortenAnonymous creates an ownerless link. It is written to the durable
// store when enabled; otherwise, or when that write fails, it is held in the
// demo registry.
func (s *URLShortenerService) ShortenAnonymous(ctx context.Context, originalURL string) (*domain.DemoLinkEntry, error) {
	if err := ValidateURL(originalURL); err != nil {
		return nil, err
	}

	title := ""
	if s.metadata != nil {
		title = s.metadata.Fetch(ctx, originalURL).Title
	}

	durable := s.config.DemoDurable
	for i := 0; i < maxRetries; i++ {
		code, err := s.nextCode()
		if err != nil {
			return nil, err
		}
		if code == "" {
			continue
		}

		entry := domain.DemoLinkEntry{
			ShortCode:   code,
			OriginalURL: originalURL,
			Title:       title,
			CreatedAt:   time.Now(),
		}
		if qrURL := s.qrCode(code); qrURL != nil {
			entry.QRCodeURL = *qrURL
		}

		if durable {
			link := &domain.Link{
				ShortCode:   code,
				OriginalURL: originalURL,
				IsActive:    true,
				Title:       optionalString(title),
				QRCodeURL:   optionalString(entry.QRCodeURL),
			}
			err := s.storage.SaveLink(ctx, link)
			if err == nil {
				entry.CreatedAt = link.CreatedAt
				s.observe("anonymous")
				return &entry, nil
			}
			if errors.Is(err, repository.ErrAliasExists) {
				continue
			}
			s.log.Warn("durable anonymous write failed, using demo registry", zap.Error(err))
			durable = false
		}

		exists, err := s.storage.AliasExists(ctx, code)
		if err != nil {
			s.log.Warn("could not check code against durable store", zap.String("short_code", code), zap.Error(err))
		} else if exists {
			continue
		}

		if err := s.registry.Put(code, entry); err != nil {
			if errors.Is(err, repository.ErrAliasExists) {
				continue
			}
			return nil, fmt.Errorf("failed to register demo link: %w", err)
		}
		s.observe("demo")
		return &entry, nil
	}

	return nil, ErrCodeGenerationExhausted
}

// ClaimLink assigns an ownerless link to ownerID. Claiming a link the caller
// already owns succeeds. A demo registry entry is promoted into a durable
// link owned by the caller.
func (s *URLShortenerService) ClaimLink(ctx context.Context, code string, ownerID int64) error {
	err := s.storage.ClaimUnownedLink(ctx, code, ownerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrAliasNotFound) {
		return err
	}

	entry, ok := s.registry.Get(code)
	if !ok {
		// the entry may have been promoted between the two lookups
		return s.storage.ClaimUnownedLink(ctx, code, ownerID)
	}

	link := &domain.Link{
		ShortCode:   code,
		OriginalURL: entry.OriginalURL,
		UserID:      &ownerID,
		IsActive:    true,
		Title:       optionalString(entry.Title),
		QRCodeURL:   optionalString(entry.QRCodeURL),
	}
	if err := s.storage.SaveLink(ctx, link); err != nil {
		if !errors.Is(err, repository.ErrAliasExists) {
			return fmt.Errorf("failed to promote demo link: %w", err)
		}
		// a concurrent promotion won; it may have been the caller's own
		if err := s.storage.ClaimUnownedLink(ctx, code, ownerID); err != nil {
			if errors.Is(err, repository.ErrAliasNotFound) {
				return repository.ErrAlreadyOwned
			}
			return err
		}
		return nil
	}
	s.registry.Delete(code)

	s.log.Info("promoted demo link", zap.String("short_code", code), zap.Int64("user_id", ownerID))
	return nil
}

func (s *URLShortenerService) DeactivateLink(ctx context.Context, code string, ownerID int64) error {
	return s.storage.DeactivateLink(ctx, code, ownerID)
}

func (s *URLShortenerService) ListLinks(ctx context.Context, ownerID int64, page, limit int) ([]*domain.Link, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.storage.ListUserLinks(ctx, ownerID, limit, (page-1)*limit)
}

func (s *URLShortenerService) ShortURL(code string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/" + code
}

// nextCode returns "" when the drawn code is held by the demo registry.
func (s *URLShortenerService) nextCode() (string, error) {
	code, err := s.newCode(s.config.CodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate short code: %w", err)
	}
	if s.registry.Has(code) {
		return "", nil
	}
	return code, nil
}

// applyMetadata fills title, description and favicon. Caller supplied
// values win; the page is fetched only when one of them is missing.
func (s *URLShortenerService) applyMetadata(ctx context.Context, link *domain.Link, title, description string) {
	link.Title = optionalString(title)
	link.Description = optionalString(description)

	if s.metadata == nil || (title != "" && description != "") {
		return
	}

	meta := s.metadata.Fetch(ctx, link.OriginalURL)
	if link.Title == nil {
		link.Title = optionalString(meta.Title)
	}
	if link.Description == nil {
		link.Description = optionalString(meta.Description)
	}
	link.FaviconURL = optionalString(meta.FaviconURL)
}

func (s *URLShortenerService) qrCode(code string) *string {
	dataURL, err := qr.DataURL(s.ShortURL(code), s.config.QRSize)
	if err != nil {
		s.log.Warn("failed to generate qr code", zap.String("short_code", code), zap.Error(err))
		return nil
	}
	return &dataURL
}

func (s *URLShortenerService) observe(kind string) {
	if s.observer != nil {
		s.observer.ObserveLinkCreated(kind)
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
