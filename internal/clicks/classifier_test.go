package clicks

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func recordClick(t *testing.T, storage *memory.MemStorage, linkID uuid.UUID, ip string, at time.Time) {
	t.Helper()
	err := storage.CreateClick(context.Background(), &domain.Click{
		LinkID:    linkID,
		IPAddress: strPtr(ip),
		CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestClassify_FirstVisitIsUnique(t *testing.T) {
	storage := memory.New()
	classifier := NewClassifier(storage)

	unique, err := classifier.Classify(context.Background(), uuid.New(), strPtr("203.0.113.1"), time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestClassify_RepeatWithinWindowIsNotUnique(t *testing.T) {
	storage := memory.New()
	classifier := NewClassifier(storage)
	linkID := uuid.New()
	now := time.Now().UTC()

	recordClick(t, storage, linkID, "203.0.113.1", now.Add(-time.Hour))

	unique, err := classifier.Classify(context.Background(), linkID, strPtr("203.0.113.1"), now)
	require.NoError(t, err)
	assert.False(t, unique)
}

func TestClassify_RepeatOutsideWindowIsUnique(t *testing.T) {
	storage := memory.New()
	classifier := NewClassifier(storage)
	linkID := uuid.New()
	now := time.Now().UTC()

	recordClick(t, storage, linkID, "203.0.113.1", now.Add(-UniqueWindow-time.Minute))

	unique, err := classifier.Classify(context.Background(), linkID, strPtr("203.0.113.1"), now)
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestClassify_DifferentLinkSameIPIsUnique(t *testing.T) {
	storage := memory.New()
	classifier := NewClassifier(storage)
	now := time.Now().UTC()

	recordClick(t, storage, uuid.New(), "203.0.113.1", now.Add(-time.Hour))

	unique, err := classifier.Classify(context.Background(), uuid.New(), strPtr("203.0.113.1"), now)
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestClassify_MissingIPIsAlwaysUnique(t *testing.T) {
	storage := memory.New()
	classifier := NewClassifier(storage)
	linkID := uuid.New()
	now := time.Now().UTC()

	unique, err := classifier.Classify(context.Background(), linkID, nil, now)
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = classifier.Classify(context.Background(), linkID, strPtr(""), now)
	require.NoError(t, err)
	assert.True(t, unique)
}
