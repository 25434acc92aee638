package service

import (
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxGenerationAttempts предел попыток генерации уникального кода
const maxGenerationAttempts = 10

var (
	ErrInvalidURL          = errors.New("invalid destination url")
	ErrInvalidAlias        = errors.New("invalid custom alias")
	ErrInvalidTopic        = errors.New("invalid topic")
	ErrGenerationExhausted = errors.New("failed to generate a unique short code")
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// ShortenRequest параметры создания короткой ссылки
type ShortenRequest struct {
	LongURL     string
	CustomAlias *string
	Topic       *string
	ExpiresAt   *time.Time
}

// ShortenerService создает короткие ссылки
type ShortenerService struct {
	storage    repository.Storage
	linkCache  *cache.LinkCache
	codeLength int
	log        *zap.Logger
}

func NewShortener(storage repository.Storage, linkCache *cache.LinkCache, cfg *config.URLShortener, log *zap.Logger) *ShortenerService {
	return &ShortenerService{
		storage:    storage,
		linkCache:  linkCache,
		codeLength: cfg.CodeLength,
		log:        log,
	}
}

// Shorten валидирует запрос, генерирует при необходимости короткий код и
// сохраняет ссылку. Валидация и конфликт алиаса обнаруживаются до любой
// мутации.
func (s *ShortenerService) Shorten(ctx context.Context, userID uuid.UUID, req ShortenRequest) (*domain.Link, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	if req.CustomAlias != nil {
		exists, err := s.storage.AliasExists(ctx, *req.CustomAlias)
		if err != nil {
			return nil, fmt.Errorf("failed to check custom alias: %w", err)
		}
		if exists {
			return nil, repository.ErrAliasExists
		}
	}

	shortCode, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	link := &domain.Link{
		UserID:      userID,
		LongURL:     req.LongURL,
		ShortCode:   shortCode,
		CustomAlias: req.CustomAlias,
		Topic:       req.Topic,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    true,
	}

	if err := s.storage.CreateLink(ctx, link); err != nil {
		if errors.Is(err, repository.ErrAliasExists) {
			// Проигранная гонка между предварительной проверкой и вставкой:
			// уникальный индекс хранилища — окончательный арбитр
			if req.CustomAlias != nil {
				return nil, repository.ErrAliasExists
			}
			return nil, ErrGenerationExhausted
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	// Прогреваем кеш ссылок: первый редирект не пойдет в базу за URL
	s.linkCache.Set(ctx, link.Alias(), link.LongURL)

	s.log.Info("created link",
		zap.String("alias", link.Alias()),
		zap.String("user_id", userID.String()))
	return link, nil
}

// generateCode подбирает свободный короткий код за ограниченное число попыток
func (s *ShortenerService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		code, err := random.NewRandomString(s.codeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		exists, err := s.storage.AliasExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

func validateRequest(req *ShortenRequest) error {
	parsed, err := url.Parse(req.LongURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}

	if req.CustomAlias != nil {
		if *req.CustomAlias == "" {
			req.CustomAlias = nil
		} else if !aliasPattern.MatchString(*req.CustomAlias) {
			return ErrInvalidAlias
		}
	}

	if req.Topic != nil {
		if *req.Topic == "" {
			req.Topic = nil
		} else if len(*req.Topic) > 50 {
			return ErrInvalidTopic
		}
	}

	return nil
}
