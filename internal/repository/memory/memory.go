package memory

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"
)

// MemStorage keeps links, clicks and users in process memory. Returned links
// are copies, so callers cannot mutate stored state.
type MemStorage struct {
	mu           sync.RWMutex
	links        map[string]*domain.Link
	clicks       map[int64][]domain.ClickEvent
	usersByEmail map[string]*domain.User
	linkCounter  int64
	clickCounter int64
	userCounter  int64
}

func New() *MemStorage {
	return &MemStorage{
		links:        make(map[string]*domain.Link),
		clicks:       make(map[int64][]domain.ClickEvent),
		usersByEmail: make(map[string]*domain.User),
	}
}

// --- Link Methods ---

func (s *MemStorage) SaveLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.links[link.ShortCode]; exists {
		return repository.ErrAliasExists
	}

	s.linkCounter++
	now := time.Now()
	link.ID = s.linkCounter
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	s.links[link.ShortCode] = &stored
	return nil
}

func (s *MemStorage) FindActiveLinkByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[code]
	if !ok || !link.IsActive {
		return nil, repository.ErrAliasNotFound
	}
	out := *link
	return &out, nil
}

func (s *MemStorage) AliasExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[code]
	return ok, nil
}

func (s *MemStorage) ClaimUnownedLink(_ context.Context, code string, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[code]
	if !ok {
		return repository.ErrAliasNotFound
	}
	if link.UserID != nil {
		if *link.UserID == ownerID {
			return nil
		}
		return repository.ErrAlreadyOwned
	}
	link.UserID = &ownerID
	link.UpdatedAt = time.Now()
	return nil
}

func (s *MemStorage) DeactivateLink(_ context.Context, code string, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[code]
	if !ok || !link.IsActive || link.UserID == nil || *link.UserID != ownerID {
		return repository.ErrAliasNotFound
	}
	link.IsActive = false
	link.UpdatedAt = time.Now()
	return nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID int64, limit, offset int) ([]*domain.Link, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var userLinks []*domain.Link
	for _, link := range s.links {
		if link.IsActive && link.UserID != nil && *link.UserID == userID {
			l := *link
			userLinks = append(userLinks, &l)
		}
	}
	sort.Slice(userLinks, func(i, j int) bool { return userLinks[i].ID > userLinks[j].ID })

	total := int64(len(userLinks))
	if offset >= len(userLinks) {
		return []*domain.Link{}, total, nil
	}
	userLinks = userLinks[offset:]
	if limit > 0 && limit < len(userLinks) {
		userLinks = userLinks[:limit]
	}
	return userLinks, total, nil
}

// --- Click Methods ---

func (s *MemStorage) InsertClick(_ context.Context, click *domain.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clickCounter++
	click.ID = s.clickCounter
	s.clicks[click.URLID] = append(s.clicks[click.URLID], *click)
	return nil
}

func (s *MemStorage) CountClicks(_ context.Context, linkID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.clicks[linkID])), nil
}

// Clicks returns a copy of the recorded clicks for a link.
func (s *MemStorage) Clicks(linkID int64) []domain.ClickEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ClickEvent(nil), s.clicks[linkID]...)
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, email, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[email]; exists {
		return nil, repository.ErrUserExists
	}
	s.userCounter++
	user := &domain.User{
		ID:           s.userCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.usersByEmail[email] = user
	out := *user
	return &out, nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (s *MemStorage) UpdateLastLogin(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.usersByEmail {
		if user.ID == userID {
			now := time.Now()
			user.LastLoginAt = &now
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *MemStorage) Ping(context.Context) error {
	return nil
}
