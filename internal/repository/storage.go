package repository

import (
	"LinkLab-Backend/internal/domain"
	"context"
	"errors"
)

var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrAliasExists   = errors.New("alias already exists")
	ErrAlreadyOwned  = errors.New("link already owned by another user")
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
)

type LinkStorage interface {
	// SaveLink inserts a new link. A short code collision returns ErrAliasExists.
	SaveLink(ctx context.Context, link *domain.Link) error
	// FindActiveLinkByCode returns ErrAliasNotFound for unknown or inactive codes.
	FindActiveLinkByCode(ctx context.Context, code string) (*domain.Link, error)
	AliasExists(ctx context.Context, code string) (bool, error)
	// ClaimUnownedLink sets the owner only where none is set. ErrAlreadyOwned
	// when another user owns the link, ErrAliasNotFound when it does not exist.
	ClaimUnownedLink(ctx context.Context, code string, ownerID int64) error
	// DeactivateLink soft deletes a link owned by ownerID.
	DeactivateLink(ctx context.Context, code string, ownerID int64) error
	ListUserLinks(ctx context.Context, userID int64, limit, offset int) ([]*domain.Link, int64, error)
}

type ClickStorage interface {
	InsertClick(ctx context.Context, click *domain.ClickEvent) error
	CountClicks(ctx context.Context, linkID int64) (int64, error)
}

type UserStorage interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

type Storage interface {
	LinkStorage
	ClickStorage
	UserStorage
	Ping(ctx context.Context) error
}

// DemoRegistry holds anonymous links that are not in the durable store.
// Implementations must be safe for concurrent use.
type DemoRegistry interface {
	// Put returns ErrAliasExists when the code is already registered.
	Put(code string, entry domain.DemoLinkEntry) error
	// Get returns a copy of the entry.
	Get(code string) (*domain.DemoLinkEntry, bool)
	IncrementClicks(code string) bool
	Has(code string) bool
	Delete(code string)
	Len() int
}
