package postgres

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const uniqueViolationCode = "23505"

// PostgresStorage реализует интерфейс Storage поверх GORM (postgres или sqlite)
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- Link Methods ---

// SaveLink вставляет новую ссылку. Уникальность short_code обеспечивается
// индексом, поэтому отдельной проверки перед вставкой нет.
func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAliasExists
		}
		s.log.Error("failed to save link", zap.String("short_code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("short_code", link.ShortCode), zap.Int64("id", link.ID))
	return nil
}

// FindActiveLinkByCode получает активную ссылку по короткому коду
func (s *PostgresStorage) FindActiveLinkByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("short_code = ? AND is_active = ?", code, true).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("short_code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// AliasExists проверяет, занят ли код (включая неактивные ссылки)
func (s *PostgresStorage) AliasExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check alias existence", zap.String("short_code", code), zap.Error(err))
		return false, fmt.Errorf("failed to check alias: %w", err)
	}

	return count > 0, nil
}

// ClaimUnownedLink присваивает владельца ссылке без владельца
func (s *PostgresStorage) ClaimUnownedLink(ctx context.Context, code string, ownerID int64) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("short_code = ? AND user_id IS NULL", code).
		Updates(map[string]interface{}{"user_id": ownerID, "updated_at": time.Now()})
	if result.Error != nil {
		s.log.Error("failed to claim link", zap.String("short_code", code), zap.Error(result.Error))
		return fmt.Errorf("failed to claim link: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.log.Info("claimed link", zap.String("short_code", code), zap.Int64("user_id", ownerID))
		return nil
	}

	// Ничего не обновлено: либо ссылки нет, либо у нее уже есть владелец
	var link domain.Link
	err := s.db.WithContext(ctx).Select("id", "user_id").Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrAliasNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load link: %w", err)
	}
	if link.UserID != nil && *link.UserID == ownerID {
		return nil
	}
	return repository.ErrAlreadyOwned
}

// DeactivateLink мягко удаляет ссылку владельца
func (s *PostgresStorage) DeactivateLink(ctx context.Context, code string, ownerID int64) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("short_code = ? AND user_id = ? AND is_active = ?", code, ownerID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		s.log.Error("failed to deactivate link", zap.String("short_code", code), zap.Error(result.Error))
		return fmt.Errorf("failed to deactivate link: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrAliasNotFound
	}

	s.log.Info("deactivated link", zap.String("short_code", code), zap.Int64("user_id", ownerID))
	return nil
}

// ListUserLinks возвращает страницу активных ссылок пользователя и их общее количество
func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID int64, limit, offset int) ([]*domain.Link, int64, error) {
	var (
		links []*domain.Link
		total int64
	)

	base := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		s.log.Error("failed to count user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count user links: %w", err)
	}

	err := base.Order("created_at DESC").Limit(limit).Offset(offset).Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list user links: %w", err)
	}

	return links, total, nil
}

// --- Click Methods ---

// InsertClick добавляет запись о переходе
func (s *PostgresStorage) InsertClick(ctx context.Context, click *domain.ClickEvent) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}
	return nil
}

// CountClicks возвращает количество записанных переходов по ссылке
func (s *PostgresStorage) CountClicks(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.ClickEvent{}).Where("url_id = ?", linkID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// --- User Methods ---

// CreateUser создает пользователя с email и хешем пароля
func (s *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user := domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID))
	return &user, nil
}

// GetUserByEmail получает пользователя по email
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateLastLogin обновляет время последнего входа
func (s *PostgresStorage) UpdateLastLogin(ctx context.Context, userID int64) error {
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Ping проверяет доступность базы данных
func (s *PostgresStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation распознает нарушение уникального индекса для postgres и sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
