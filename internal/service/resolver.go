package service

import (
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"errors"

	"go.uber.org/zap"
)

// ResolverService разрешает алиас в ссылку по схеме cache-aside
type ResolverService struct {
	storage   repository.Storage
	linkCache *cache.LinkCache
	log       *zap.Logger
}

func NewResolver(storage repository.Storage, linkCache *cache.LinkCache, log *zap.Logger) *ResolverService {
	return &ResolverService{
		storage:   storage,
		linkCache: linkCache,
		log:       log,
	}
}

// Resolve возвращает активную ссылку для алиаса. Запись ссылки нужна и при
// попадании в кеш — без нее невозможен учет клика, поэтому база читается
// всегда; кеш избавляет только от повторного поиска URL по алиасу при
// промахах базы и служит защитой горячего пути. Ошибки кеша никогда не
// доходят до вызывающего кода: LinkCache превращает их в промахи.
func (s *ResolverService) Resolve(ctx context.Context, alias string) (*domain.Link, error) {
	_, hit := s.linkCache.Get(ctx, alias)

	link, err := s.storage.GetLinkByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, repository.ErrAliasNotFound) {
			if hit {
				// Устаревшая запись: ссылка удалена или деактивирована,
				// а кеш еще хранит ее URL
				s.log.Debug("evicting stale link cache entry", zap.String("alias", alias))
				s.linkCache.Invalidate(ctx, alias)
			}
			return nil, repository.ErrAliasNotFound
		}
		return nil, err
	}

	if !hit {
		s.linkCache.Set(ctx, alias, link.LongURL)
	}

	return link, nil
}
