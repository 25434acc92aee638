package service

import (
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/repository/memory"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func newTestShortener(storage repository.Storage) (*ShortenerService, *cache.MemStore) {
	store := cache.NewMemStore()
	linkCache := cache.NewLinkCache(store, zap.NewNop())
	cfg := &config.URLShortener{CodeLength: 8, BaseURL: "http://localhost:8080"}
	return NewShortener(storage, linkCache, cfg, zap.NewNop()), store
}

func TestShorten_GeneratedCode(t *testing.T) {
	storage := memory.New()
	svc, store := newTestShortener(storage)
	userID := uuid.New()

	link, err := svc.Shorten(context.Background(), userID, ShortenRequest{
		LongURL: "https://example.com/some/long/path",
	})
	require.NoError(t, err)

	assert.Len(t, link.ShortCode, 8)
	assert.Nil(t, link.CustomAlias)
	assert.Equal(t, userID, link.UserID)
	assert.True(t, link.IsActive)

	// Ссылка сразу находится по сгенерированному коду
	found, err := storage.GetLinkByAlias(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)

	// Кеш прогрет при создании
	assert.Equal(t, 1, store.Len())
}

func TestShorten_DistinctCodes(t *testing.T) {
	svc, _ := newTestShortener(memory.New())
	userID := uuid.New()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		link, err := svc.Shorten(context.Background(), userID, ShortenRequest{
			LongURL: "https://example.com",
		})
		require.NoError(t, err)

		_, dup := seen[link.ShortCode]
		require.False(t, dup, "duplicate short code %q", link.ShortCode)
		seen[link.ShortCode] = struct{}{}
	}
}

func TestShorten_CustomAlias(t *testing.T) {
	storage := memory.New()
	svc, _ := newTestShortener(storage)

	link, err := svc.Shorten(context.Background(), uuid.New(), ShortenRequest{
		LongURL:     "https://example.com",
		CustomAlias: strPtr("my-link"),
		Topic:       strPtr("marketing"),
	})
	require.NoError(t, err)

	require.NotNil(t, link.CustomAlias)
	assert.Equal(t, "my-link", *link.CustomAlias)
	assert.Equal(t, "my-link", link.Alias())

	// Разрешается и кастомный алиас, и системный код
	_, err = storage.GetLinkByAlias(context.Background(), "my-link")
	assert.NoError(t, err)
	_, err = storage.GetLinkByAlias(context.Background(), link.ShortCode)
	assert.NoError(t, err)
}

func TestShorten_CustomAliasConflict(t *testing.T) {
	svc, _ := newTestShortener(memory.New())

	_, err := svc.Shorten(context.Background(), uuid.New(), ShortenRequest{
		LongURL:     "https://example.com",
		CustomAlias: strPtr("taken"),
	})
	require.NoError(t, err)

	_, err = svc.Shorten(context.Background(), uuid.New(), ShortenRequest{
		LongURL:     "https://example.org",
		CustomAlias: strPtr("taken"),
	})
	assert.ErrorIs(t, err, repository.ErrAliasExists)
}

func TestShorten_Validation(t *testing.T) {
	svc, _ := newTestShortener(memory.New())
	userID := uuid.New()

	tests := []struct {
		name string
		req  ShortenRequest
		want error
	}{
		{"empty url", ShortenRequest{LongURL: ""}, ErrInvalidURL},
		{"relative url", ShortenRequest{LongURL: "/just/a/path"}, ErrInvalidURL},
		{"bad scheme", ShortenRequest{LongURL: "ftp://example.com/file"}, ErrInvalidURL},
		{"no host", ShortenRequest{LongURL: "https://"}, ErrInvalidURL},
		{"alias too short", ShortenRequest{LongURL: "https://example.com", CustomAlias: strPtr("ab")}, ErrInvalidAlias},
		{"alias bad chars", ShortenRequest{LongURL: "https://example.com", CustomAlias: strPtr("has space")}, ErrInvalidAlias},
		{"topic too long", ShortenRequest{LongURL: "https://example.com", Topic: strPtr(string(make([]byte, 51)))}, ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Shorten(context.Background(), userID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestShorten_EmptyOptionalFieldsNormalized(t *testing.T) {
	svc, _ := newTestShortener(memory.New())

	link, err := svc.Shorten(context.Background(), uuid.New(), ShortenRequest{
		LongURL:     "https://example.com",
		CustomAlias: strPtr(""),
		Topic:       strPtr(""),
	})
	require.NoError(t, err)

	assert.Nil(t, link.CustomAlias)
	assert.Nil(t, link.Topic)
}

// collidingStorage имитирует хранилище, в котором занят любой алиас
type collidingStorage struct {
	*memory.MemStorage
}

func (s *collidingStorage) AliasExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func TestShorten_GenerationExhausted(t *testing.T) {
	svc, _ := newTestShortener(&collidingStorage{memory.New()})

	_, err := svc.Shorten(context.Background(), uuid.New(), ShortenRequest{
		LongURL: "https://example.com",
	})
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}
