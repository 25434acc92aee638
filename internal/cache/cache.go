package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// LinkTTL время жизни записи алиас -> URL
	LinkTTL = time.Hour
	// AnalyticsTTL время жизни сериализованного среза аналитики
	AnalyticsTTL = 5 * time.Minute

	// opTimeout ограничивает каждое обращение к кешу: медленный кеш не должен
	// задерживать редирект
	opTimeout = 500 * time.Millisecond
)

// LinkKey формат ключа кеша ссылок: url:<alias>
func LinkKey(alias string) string {
	return "url:" + alias
}

// AnalyticsLinkKey формат ключа аналитики по ссылке: analytics:<linkId>
func AnalyticsLinkKey(linkID uuid.UUID) string {
	return "analytics:" + linkID.String()
}

// AnalyticsTopicKey формат ключа аналитики по топику: topic_analytics:<userId>:<topic>
func AnalyticsTopicKey(userID uuid.UUID, topic string) string {
	return "topic_analytics:" + userID.String() + ":" + topic
}

// AnalyticsOverallKey формат ключа сводной аналитики: overall_analytics:<userId>
func AnalyticsOverallKey(userID uuid.UUID) string {
	return "overall_analytics:" + userID.String()
}

// LinkCache кеш соответствия алиас -> конечный URL. Все ошибки нижележащего
// хранилища логируются и превращаются в промах: кеш — оптимизация, а не
// зависимость.
type LinkCache struct {
	store Store
	log   *zap.Logger
}

func NewLinkCache(store Store, log *zap.Logger) *LinkCache {
	return &LinkCache{store: store, log: log}
}

// Get возвращает закешированный URL для алиаса
func (c *LinkCache) Get(ctx context.Context, alias string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := c.store.Get(ctx, LinkKey(alias))
	if err != nil {
		if err != ErrCacheMiss {
			c.log.Warn("link cache get failed", zap.String("alias", alias), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// Set записывает URL алиаса с TTL в один час
func (c *LinkCache) Set(ctx context.Context, alias string, longURL string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.store.Set(ctx, LinkKey(alias), longURL, LinkTTL); err != nil {
		c.log.Warn("link cache set failed", zap.String("alias", alias), zap.Error(err))
	}
}

// Invalidate удаляет запись алиаса из кеша
func (c *LinkCache) Invalidate(ctx context.Context, alias string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.store.Del(ctx, LinkKey(alias)); err != nil {
		c.log.Warn("link cache invalidate failed", zap.String("alias", alias), zap.Error(err))
	}
}

// AnalyticsCache кеш готовых срезов аналитики. Значения хранятся как JSON и
// на попадании возвращаются без пересчета. Конкурентные вычисления одного
// холодного ключа допустимы.
type AnalyticsCache struct {
	store Store
	log   *zap.Logger
}

func NewAnalyticsCache(store Store, log *zap.Logger) *AnalyticsCache {
	return &AnalyticsCache{store: store, log: log}
}

// Get десериализует закешированный срез в v
func (c *AnalyticsCache) Get(ctx context.Context, key string, v interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if err != ErrCacheMiss {
			c.log.Warn("analytics cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		c.log.Warn("analytics cache holds malformed payload", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set сериализует срез и записывает его с TTL в 5 минут
func (c *AnalyticsCache) Set(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("failed to marshal analytics payload", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.store.Set(ctx, key, string(raw), AnalyticsTTL); err != nil {
		c.log.Warn("analytics cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate удаляет срезы по ключам
func (c *AnalyticsCache) Invalidate(ctx context.Context, keys ...string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.store.Del(ctx, keys...); err != nil {
		c.log.Warn("analytics cache invalidate failed", zap.Error(err))
	}
}
