package clicks

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/geo"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/repository/memory"
	"LinkPulse-Backend/pkg/useragent"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newTestProcessor(t *testing.T, storage repository.Storage) *Processor {
	t.Helper()

	uaParser, err := useragent.New("", zap.NewNop())
	require.NoError(t, err)

	geoResolver, err := geo.New("", zap.NewNop())
	require.NoError(t, err)

	cfg := DefaultConfig()
	// Один воркер сериализует классификацию уникальности
	cfg.WorkerCount = 1
	cfg.RetryDelay = 10 * time.Millisecond

	return NewProcessor(storage, NewClassifier(storage), uaParser, geoResolver, zap.NewNop(), cfg)
}

func createTestLink(t *testing.T, storage *memory.MemStorage) *domain.Link {
	t.Helper()
	link := &domain.Link{
		UserID:    uuid.New(),
		LongURL:   "https://example.com/landing",
		ShortCode: "abc12345",
		IsActive:  true,
	}
	require.NoError(t, storage.CreateLink(context.Background(), link))
	return link
}

func TestProcessor_RecordsClickAndCounters(t *testing.T) {
	storage := memory.New()
	link := createTestLink(t, storage)

	p := newTestProcessor(t, storage)
	require.NoError(t, p.Start())
	defer p.Stop()

	err := p.Submit(&ClickData{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Alias:     link.Alias(),
		IPAddress: strPtr("203.0.113.7"),
		UserAgent: chromeUA,
		ClickedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		l, err := storage.GetLinkByAlias(context.Background(), link.Alias())
		return err == nil && l.ClickCount == 1 && l.UniqueClicks == 1
	}, 2*time.Second, 10*time.Millisecond)

	stats, err := storage.ClicksByDevice(context.Background(), []uuid.UUID{link.ID}, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "desktop", stats[0].Name)
	assert.Equal(t, int64(1), stats[0].Clicks)
}

func TestProcessor_RepeatVisitNotCountedUnique(t *testing.T) {
	storage := memory.New()
	link := createTestLink(t, storage)

	p := newTestProcessor(t, storage)
	require.NoError(t, p.Start())
	defer p.Stop()

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		err := p.Submit(&ClickData{
			LinkID:    link.ID,
			UserID:    link.UserID,
			Alias:     link.Alias(),
			IPAddress: strPtr("203.0.113.7"),
			UserAgent: chromeUA,
			ClickedAt: now,
		})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		l, err := storage.GetLinkByAlias(context.Background(), link.Alias())
		return err == nil && l.ClickCount == 2
	}, 2*time.Second, 10*time.Millisecond)

	l, err := storage.GetLinkByAlias(context.Background(), link.Alias())
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.UniqueClicks)
}

func TestProcessor_SubmitBeforeStartFails(t *testing.T) {
	p := newTestProcessor(t, memory.New())

	err := p.Submit(&ClickData{LinkID: uuid.New()})
	assert.Error(t, err)
}

func TestProcessor_DoubleStartFails(t *testing.T) {
	p := newTestProcessor(t, memory.New())
	require.NoError(t, p.Start())
	defer p.Stop()

	assert.Error(t, p.Start())
}

func TestProcessor_DeletedLinkDoesNotRetryForever(t *testing.T) {
	storage := memory.New()
	link := createTestLink(t, storage)

	p := newTestProcessor(t, storage)
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, storage.DeleteLink(context.Background(), link.ID))

	// Клик по только что удаленной ссылке фиксируется без обновления счетчиков
	err := p.Submit(&ClickData{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Alias:     link.Alias(),
		UserAgent: chromeUA,
		ClickedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		stats := p.Stats()
		return stats["queue_length"] == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// flakyCounterStorage роняет заданное число обновлений счетчиков
type flakyCounterStorage struct {
	*memory.MemStorage
	failuresLeft int32
}

func (s *flakyCounterStorage) IncrementClickCounts(ctx context.Context, linkID uuid.UUID, unique bool) error {
	if atomic.AddInt32(&s.failuresLeft, -1) >= 0 {
		return errors.New("connection reset")
	}
	return s.MemStorage.IncrementClickCounts(ctx, linkID, unique)
}

func TestProcessor_CounterRetryDoesNotDuplicateClick(t *testing.T) {
	mem := memory.New()
	link := createTestLink(t, mem)
	storage := &flakyCounterStorage{MemStorage: mem, failuresLeft: 1}

	p := newTestProcessor(t, storage)
	require.NoError(t, p.Start())
	defer p.Stop()

	require.NoError(t, p.Submit(&ClickData{
		LinkID:    link.ID,
		UserID:    link.UserID,
		Alias:     link.Alias(),
		IPAddress: strPtr("203.0.113.7"),
		UserAgent: chromeUA,
		ClickedAt: time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		l, err := mem.GetLinkByAlias(context.Background(), link.Alias())
		return err == nil && l.ClickCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Повтор затронул только счетчики: сырое событие вставлено один раз и
	// осталось уникальным
	l, err := mem.GetLinkByAlias(context.Background(), link.Alias())
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.UniqueClicks)

	rows, err := mem.CountClicksByDay(context.Background(), []uuid.UUID{link.ID}, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Clicks)
}

func TestProcessor_Stats(t *testing.T) {
	p := newTestProcessor(t, memory.New())

	stats := p.Stats()
	assert.Equal(t, false, stats["started"])
	assert.Equal(t, 0, stats["queue_length"])
	assert.Equal(t, 1, stats["worker_count"])
}
