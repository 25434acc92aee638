package memory

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemStorage потокобезопасная реализация Storage в памяти для тестов и
// локальной разработки
type MemStorage struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	links  map[uuid.UUID]*domain.Link
	clicks []*domain.Click
}

func New() *MemStorage {
	return &MemStorage{
		users: make(map[uuid.UUID]*domain.User),
		links: make(map[uuid.UUID]*domain.Link),
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrUserExists
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *MemStorage) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка уникальности в обоих пространствах имен, включая удаленные строки
	if s.aliasTaken(link.ShortCode) {
		return repository.ErrAliasExists
	}
	if link.CustomAlias != nil && s.aliasTaken(*link.CustomAlias) {
		return repository.ErrAliasExists
	}

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	s.links[link.ID] = link
	return nil
}

func (s *MemStorage) GetLinkByAlias(_ context.Context, alias string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link := s.findByAlias(alias)
	if link == nil || !link.IsActive || link.IsExpired(time.Now()) {
		return nil, repository.ErrAliasNotFound
	}
	return link, nil
}

func (s *MemStorage) GetUserLinkByAlias(_ context.Context, userID uuid.UUID, alias string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link := s.findByAlias(alias)
	if link == nil || link.UserID != userID {
		return nil, repository.ErrAliasNotFound
	}
	return link, nil
}

func (s *MemStorage) GetUserLinkByID(_ context.Context, userID uuid.UUID, linkID uuid.UUID) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[linkID]
	if !ok || link.DeletedAt.Valid || link.UserID != userID {
		return nil, repository.ErrAliasNotFound
	}
	return link, nil
}

func (s *MemStorage) AliasExists(_ context.Context, alias string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliasTaken(alias), nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID uuid.UUID, topic *string) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userLinks []*domain.Link
	for _, link := range s.links {
		if link.DeletedAt.Valid || link.UserID != userID {
			continue
		}
		if topic != nil && (link.Topic == nil || *link.Topic != *topic) {
			continue
		}
		userLinks = append(userLinks, link)
	}

	sort.Slice(userLinks, func(i, j int) bool {
		return userLinks[i].CreatedAt.After(userLinks[j].CreatedAt)
	})
	return userLinks, nil
}

func (s *MemStorage) DeleteLink(_ context.Context, linkID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[linkID]
	if !ok || link.DeletedAt.Valid {
		return repository.ErrAliasNotFound
	}
	link.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	return nil
}

func (s *MemStorage) IncrementClickCounts(_ context.Context, linkID uuid.UUID, unique bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[linkID]
	if !ok || link.DeletedAt.Valid {
		return repository.ErrAliasNotFound
	}
	link.ClickCount++
	if unique {
		link.UniqueClicks++
	}
	return nil
}

// --- Click Methods ---

func (s *MemStorage) CreateClick(_ context.Context, click *domain.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if click.ID == uuid.Nil {
		click.ID = uuid.New()
	}
	if click.CreatedAt.IsZero() {
		click.CreatedAt = time.Now().UTC()
	}
	s.clicks = append(s.clicks, click)
	return nil
}

func (s *MemStorage) HasClickSince(_ context.Context, linkID uuid.UUID, ipAddress string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, click := range s.clicks {
		if click.LinkID == linkID && click.IPAddress != nil && *click.IPAddress == ipAddress && !click.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStorage) CountClicksByDay(_ context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.ClicksPerDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[time.Time]int64)
	for _, click := range s.clicksFor(linkIDs, since) {
		day := truncateToDay(click.CreatedAt)
		byDay[day]++
	}

	rows := make([]domain.ClicksPerDay, 0, len(byDay))
	for day, clicks := range byDay {
		rows = append(rows, domain.ClicksPerDay{Day: day, Clicks: clicks})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.Before(rows[j].Day) })
	return rows, nil
}

func (s *MemStorage) ClicksByOS(_ context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error) {
	return s.clicksByDimension(linkIDs, since, func(c *domain.Click) string { return c.OSName })
}

func (s *MemStorage) ClicksByDevice(_ context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error) {
	return s.clicksByDimension(linkIDs, since, func(c *domain.Click) string { return c.DeviceType })
}

func (s *MemStorage) clicksByDimension(linkIDs []uuid.UUID, since time.Time, dimension func(*domain.Click) string) ([]domain.DimensionStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	ips := make(map[string]map[string]struct{})
	for _, click := range s.clicksFor(linkIDs, since) {
		name := dimension(click)
		counts[name]++
		if click.IPAddress != nil {
			if ips[name] == nil {
				ips[name] = make(map[string]struct{})
			}
			ips[name][*click.IPAddress] = struct{}{}
		}
	}

	rows := make([]domain.DimensionStat, 0, len(counts))
	for name, clicks := range counts {
		rows = append(rows, domain.DimensionStat{
			Name:      name,
			Clicks:    clicks,
			UniqueIPs: int64(len(ips[name])),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Clicks > rows[j].Clicks })
	return rows, nil
}

// --- Helpers ---

// aliasTaken проверяет алиас без учета мягкого удаления; вызывается под блокировкой
func (s *MemStorage) aliasTaken(alias string) bool {
	for _, link := range s.links {
		if link.ShortCode == alias {
			return true
		}
		if link.CustomAlias != nil && *link.CustomAlias == alias {
			return true
		}
	}
	return false
}

// findByAlias ищет неудаленную ссылку по любому из алиасов; вызывается под блокировкой
func (s *MemStorage) findByAlias(alias string) *domain.Link {
	for _, link := range s.links {
		if link.DeletedAt.Valid {
			continue
		}
		if link.ShortCode == alias || (link.CustomAlias != nil && *link.CustomAlias == alias) {
			return link
		}
	}
	return nil
}

// clicksFor отбирает клики по ссылкам начиная с момента since; вызывается под блокировкой
func (s *MemStorage) clicksFor(linkIDs []uuid.UUID, since time.Time) []*domain.Click {
	ids := make(map[uuid.UUID]struct{}, len(linkIDs))
	for _, id := range linkIDs {
		ids[id] = struct{}{}
	}

	var result []*domain.Click
	for _, click := range s.clicks {
		if _, ok := ids[click.LinkID]; ok && !click.CreatedAt.Before(since) {
			result = append(result, click)
		}
	}
	return result
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
