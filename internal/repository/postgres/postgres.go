package postgres

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// CreateUser создает нового пользователя
func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail получает пользователя по email
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID получает пользователя по идентификатору
func (s *PostgresStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by id", zap.String("user_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser сохраняет изменения пользователя
func (s *PostgresStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		s.log.Error("failed to update user", zap.String("user_id", user.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// --- Link Methods ---

// CreateLink сохраняет новую ссылку. Уникальные индексы по short_code и
// custom_alias являются окончательной защитой от гонки между предварительной
// проверкой алиаса и вставкой.
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrAliasExists
		}
		s.log.Error("failed to create link", zap.String("short_code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkByAlias получает активную ссылку по короткому коду или кастомному алиасу
func (s *PostgresStorage) GetLinkByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).
		Where("(short_code = ? OR custom_alias = ?) AND is_active = ?", alias, alias, true).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("alias", alias), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	// Истекшая ссылка неотличима от отсутствующей
	if link.IsExpired(time.Now()) {
		return nil, repository.ErrAliasNotFound
	}

	return &link, nil
}

// GetUserLinkByAlias получает ссылку пользователя по алиасу (включая неактивные)
func (s *PostgresStorage) GetUserLinkByAlias(ctx context.Context, userID uuid.UUID, alias string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).
		Where("(short_code = ? OR custom_alias = ?) AND user_id = ?", alias, alias, userID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get user link", zap.String("alias", alias), zap.Error(err))
		return nil, fmt.Errorf("failed to get user link: %w", err)
	}
	return &link, nil
}

// GetUserLinkByID получает ссылку пользователя по идентификатору
func (s *PostgresStorage) GetUserLinkByID(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrAliasNotFound
	}
	if err != nil {
		s.log.Error("failed to get user link by id", zap.String("link_id", linkID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get user link: %w", err)
	}
	return &link, nil
}

// AliasExists проверяет, занят ли алиас в любом из двух пространств имен.
// Учитываются и мягко удаленные строки, чтобы ключи кеша не переиспользовались
// после удаления ссылки.
func (s *PostgresStorage) AliasExists(ctx context.Context, alias string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().Model(&domain.Link{}).
		Where("short_code = ? OR custom_alias = ?", alias, alias).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to check alias existence", zap.String("alias", alias), zap.Error(err))
		return false, fmt.Errorf("failed to check alias: %w", err)
	}
	return count > 0, nil
}

// ListUserLinks возвращает ссылки пользователя, опционально отфильтрованные по топику
func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID uuid.UUID, topic *string) ([]*domain.Link, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if topic != nil {
		query = query.Where("topic = ?", *topic)
	}

	var links []*domain.Link
	if err := query.Order("created_at DESC").Find(&links).Error; err != nil {
		s.log.Error("failed to list user links", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}
	return links, nil
}

// DeleteLink выполняет мягкое удаление ссылки
func (s *PostgresStorage) DeleteLink(ctx context.Context, linkID uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&domain.Link{}, "id = ?", linkID)
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.String("link_id", linkID.String()), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAliasNotFound
	}
	return nil
}

// IncrementClickCounts атомарно увеличивает счетчики кликов ссылки.
// Один UPDATE вместо чтения-изменения-записи: конкурентные визиты не теряют
// инкременты.
func (s *PostgresStorage) IncrementClickCounts(ctx context.Context, linkID uuid.UUID, unique bool) error {
	updates := map[string]interface{}{
		"click_count": gorm.Expr("click_count + 1"),
	}
	if unique {
		updates["unique_clicks"] = gorm.Expr("unique_clicks + 1")
	}

	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("id = ?", linkID).
		Updates(updates)
	if result.Error != nil {
		s.log.Error("failed to increment click counts", zap.String("link_id", linkID.String()), zap.Error(result.Error))
		return fmt.Errorf("failed to increment click counts: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAliasNotFound
	}
	return nil
}

// --- Click Methods ---

// CreateClick сохраняет запись о визите
func (s *PostgresStorage) CreateClick(ctx context.Context, click *domain.Click) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to create click record", zap.String("link_id", click.LinkID.String()), zap.Error(err))
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// HasClickSince проверяет, был ли визит с данного IP по ссылке начиная с момента since
func (s *PostgresStorage) HasClickSince(ctx context.Context, linkID uuid.UUID, ipAddress string, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Click{}).
		Where("link_id = ? AND ip_address = ? AND created_at >= ?", linkID, ipAddress, since).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to check prior clicks", zap.String("link_id", linkID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to check prior clicks: %w", err)
	}
	return count > 0, nil
}

// CountClicksByDay возвращает количество кликов по дням начиная с момента since
func (s *PostgresStorage) CountClicksByDay(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.ClicksPerDay, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}

	var rows []domain.ClicksPerDay
	err := s.db.WithContext(ctx).Model(&domain.Click{}).
		Select("date_trunc('day', created_at) AS day, count(*) AS clicks").
		Where("link_id IN ? AND created_at >= ?", linkIDs, since).
		Group("day").
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		s.log.Error("failed to count clicks by day", zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks by day: %w", err)
	}
	return rows, nil
}

// ClicksByOS возвращает распределение кликов по операционным системам
func (s *PostgresStorage) ClicksByOS(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error) {
	return s.clicksByDimension(ctx, "os_name", linkIDs, since)
}

// ClicksByDevice возвращает распределение кликов по типам устройств
func (s *PostgresStorage) ClicksByDevice(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error) {
	return s.clicksByDimension(ctx, "device_type", linkIDs, since)
}

// clicksByDimension группирует клики по колонке измерения; column всегда
// задается вызывающим кодом, не пользовательским вводом
func (s *PostgresStorage) clicksByDimension(ctx context.Context, column string, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error) {
	if len(linkIDs) == 0 {
		return nil, nil
	}

	var rows []domain.DimensionStat
	err := s.db.WithContext(ctx).Model(&domain.Click{}).
		Select(column + " AS name, count(*) AS clicks, count(DISTINCT ip_address) AS unique_ips").
		Where("link_id IN ? AND created_at >= ?", linkIDs, since).
		Group(column).
		Order("clicks DESC").
		Find(&rows).Error
	if err != nil {
		s.log.Error("failed to group clicks", zap.String("dimension", column), zap.Error(err))
		return nil, fmt.Errorf("failed to group clicks by %s: %w", column, err)
	}
	return rows, nil
}
