package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeyFormats(t *testing.T) {
	linkID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	userID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	assert.Equal(t, "url:abc123", LinkKey("abc123"))
	assert.Equal(t, "analytics:11111111-2222-3333-4444-555555555555", AnalyticsLinkKey(linkID))
	assert.Equal(t, "topic_analytics:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee:promo", AnalyticsTopicKey(userID, "promo"))
	assert.Equal(t, "overall_analytics:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", AnalyticsOverallKey(userID))
}

func TestLinkCache_RoundTrip(t *testing.T) {
	c := NewLinkCache(NewMemStore(), zap.NewNop())
	ctx := context.Background()

	_, hit := c.Get(ctx, "abc123")
	assert.False(t, hit)

	c.Set(ctx, "abc123", "https://example.com")

	url, hit := c.Get(ctx, "abc123")
	require.True(t, hit)
	assert.Equal(t, "https://example.com", url)

	c.Invalidate(ctx, "abc123")

	_, hit = c.Get(ctx, "abc123")
	assert.False(t, hit)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Del(context.Context, ...string) error {
	return errors.New("connection refused")
}

func TestLinkCache_StoreFailureIsMiss(t *testing.T) {
	c := NewLinkCache(brokenStore{}, zap.NewNop())
	ctx := context.Background()

	// Ошибки хранилища не всплывают наружу
	c.Set(ctx, "abc123", "https://example.com")
	_, hit := c.Get(ctx, "abc123")
	assert.False(t, hit)
	c.Invalidate(ctx, "abc123")
}

func TestAnalyticsCache_RoundTrip(t *testing.T) {
	c := NewAnalyticsCache(NewMemStore(), zap.NewNop())
	ctx := context.Background()

	type payload struct {
		TotalClicks int64 `json:"totalClicks"`
	}

	var out payload
	assert.False(t, c.Get(ctx, "analytics:test", &out))

	c.Set(ctx, "analytics:test", payload{TotalClicks: 42})

	require.True(t, c.Get(ctx, "analytics:test", &out))
	assert.Equal(t, int64(42), out.TotalClicks)
}

func TestAnalyticsCache_MalformedPayloadIsMiss(t *testing.T) {
	store := NewMemStore()
	c := NewAnalyticsCache(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "analytics:bad", "{not json", AnalyticsTTL))

	var out struct{}
	assert.False(t, c.Get(ctx, "analytics:bad", &out))
}

func TestMemStore_Expiry(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", 10*time.Millisecond))

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	time.Sleep(20 * time.Millisecond)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
