package repository

import (
	"LinkPulse-Backend/internal/domain"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrAliasExists   = errors.New("alias already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
)

type Storage interface {
	// User methods
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Link methods
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkByAlias(ctx context.Context, alias string) (*domain.Link, error)
	GetUserLinkByAlias(ctx context.Context, userID uuid.UUID, alias string) (*domain.Link, error)
	GetUserLinkByID(ctx context.Context, userID uuid.UUID, linkID uuid.UUID) (*domain.Link, error)
	AliasExists(ctx context.Context, alias string) (bool, error)
	ListUserLinks(ctx context.Context, userID uuid.UUID, topic *string) ([]*domain.Link, error)
	DeleteLink(ctx context.Context, linkID uuid.UUID) error
	IncrementClickCounts(ctx context.Context, linkID uuid.UUID, unique bool) error

	// Click methods
	CreateClick(ctx context.Context, click *domain.Click) error
	HasClickSince(ctx context.Context, linkID uuid.UUID, ipAddress string, since time.Time) (bool, error)
	CountClicksByDay(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.ClicksPerDay, error)
	ClicksByOS(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error)
	ClicksByDevice(ctx context.Context, linkIDs []uuid.UUID, since time.Time) ([]domain.DimensionStat, error)
}
