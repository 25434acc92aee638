package service

import (
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// windowDays длина скользящего окна аналитики в днях
const windowDays = 7

const dayFormat = "2006-01-02"

// DayClicks количество кликов за календарный день (UTC)
type DayClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// OSStat распределение кликов по операционной системе внутри окна
type OSStat struct {
	OSName       string `json:"osName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// DeviceStat распределение кликов по типу устройства внутри окна
type DeviceStat struct {
	DeviceName   string `json:"deviceName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// LinkAnalytics срез аналитики по одной ссылке
type LinkAnalytics struct {
	TotalClicks  int64        `json:"totalClicks"`
	UniqueUsers  int64        `json:"uniqueUsers"`
	ClicksByDate []DayClicks  `json:"clicksByDate"`
	OSType       []OSStat     `json:"osType"`
	DeviceType   []DeviceStat `json:"deviceType"`
}

// TopicURLStats сводка по одной ссылке внутри топика
type TopicURLStats struct {
	ShortURL    string `json:"shortUrl"`
	TotalClicks int64  `json:"totalClicks"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// TopicAnalytics срез аналитики по всем ссылкам топика
type TopicAnalytics struct {
	TotalClicks  int64           `json:"totalClicks"`
	UniqueUsers  int64           `json:"uniqueUsers"`
	ClicksByDate []DayClicks     `json:"clicksByDate"`
	URLs         []TopicURLStats `json:"urls"`
}

// OverallAnalytics сводный срез по всем ссылкам пользователя
type OverallAnalytics struct {
	TotalURLs    int64        `json:"totalUrls"`
	TotalClicks  int64        `json:"totalClicks"`
	UniqueUsers  int64        `json:"uniqueUsers"`
	ClicksByDate []DayClicks  `json:"clicksByDate"`
	OSType       []OSStat     `json:"osType"`
	DeviceType   []DeviceStat `json:"deviceType"`
}

// AnalyticsService вычисляет срезы аналитики за скользящее 7-дневное окно.
// Суммарные счетчики берутся из поддерживаемых счетчиков ссылки и не
// пересчитываются по сырым событиям; готовые срезы кешируются на 5 минут.
type AnalyticsService struct {
	storage repository.Storage
	cache   *cache.AnalyticsCache
	baseURL string
	log     *zap.Logger
}

func NewAnalytics(storage repository.Storage, analyticsCache *cache.AnalyticsCache, baseURL string, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		storage: storage,
		cache:   analyticsCache,
		baseURL: baseURL,
		log:     log,
	}
}

// ForLink возвращает аналитику по ссылке пользователя. Чужой или
// несуществующий алиас неотличимы: в обоих случаях ErrAliasNotFound.
func (s *AnalyticsService) ForLink(ctx context.Context, userID uuid.UUID, alias string) (*LinkAnalytics, error) {
	link, err := s.storage.GetUserLinkByAlias(ctx, userID, alias)
	if err != nil {
		return nil, err
	}

	key := cache.AnalyticsLinkKey(link.ID)
	var cached LinkAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	now := time.Now().UTC()
	since := windowStart(now)
	ids := []uuid.UUID{link.ID}

	byDay, err := s.storage.CountClicksByDay(ctx, ids, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load day series: %w", err)
	}
	osStats, err := s.storage.ClicksByOS(ctx, ids, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load os breakdown: %w", err)
	}
	deviceStats, err := s.storage.ClicksByDevice(ctx, ids, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load device breakdown: %w", err)
	}

	payload := &LinkAnalytics{
		TotalClicks:  link.ClickCount,
		UniqueUsers:  link.UniqueClicks,
		ClicksByDate: daySeries(byDay, now),
		OSType:       toOSStats(osStats),
		DeviceType:   toDeviceStats(deviceStats),
	}

	s.cache.Set(ctx, key, payload)
	return payload, nil
}

// ForTopic возвращает аналитику по всем ссылкам пользователя с данным топиком.
// Отсутствие ссылок дает валидный нулевой срез, а не ошибку.
func (s *AnalyticsService) ForTopic(ctx context.Context, userID uuid.UUID, topic string) (*TopicAnalytics, error) {
	key := cache.AnalyticsTopicKey(userID, topic)
	var cached TopicAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	links, err := s.storage.ListUserLinks(ctx, userID, &topic)
	if err != nil {
		return nil, fmt.Errorf("failed to list topic links: %w", err)
	}

	now := time.Now().UTC()
	payload := &TopicAnalytics{
		ClicksByDate: daySeries(nil, now),
		URLs:         []TopicURLStats{},
	}

	if len(links) > 0 {
		ids := make([]uuid.UUID, 0, len(links))
		for _, link := range links {
			ids = append(ids, link.ID)
			payload.TotalClicks += link.ClickCount
			payload.UniqueUsers += link.UniqueClicks
			payload.URLs = append(payload.URLs, TopicURLStats{
				ShortURL:    s.baseURL + "/" + link.Alias(),
				TotalClicks: link.ClickCount,
				UniqueUsers: link.UniqueClicks,
			})
		}

		byDay, err := s.storage.CountClicksByDay(ctx, ids, windowStart(now))
		if err != nil {
			return nil, fmt.Errorf("failed to load day series: %w", err)
		}
		payload.ClicksByDate = daySeries(byDay, now)
	}

	s.cache.Set(ctx, key, payload)
	return payload, nil
}

// Overall возвращает сводную аналитику по всем ссылкам пользователя
func (s *AnalyticsService) Overall(ctx context.Context, userID uuid.UUID) (*OverallAnalytics, error) {
	key := cache.AnalyticsOverallKey(userID)
	var cached OverallAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	links, err := s.storage.ListUserLinks(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}

	now := time.Now().UTC()
	payload := &OverallAnalytics{
		TotalURLs:    int64(len(links)),
		ClicksByDate: daySeries(nil, now),
		OSType:       []OSStat{},
		DeviceType:   []DeviceStat{},
	}

	if len(links) > 0 {
		ids := make([]uuid.UUID, 0, len(links))
		for _, link := range links {
			ids = append(ids, link.ID)
			payload.TotalClicks += link.ClickCount
			payload.UniqueUsers += link.UniqueClicks
		}

		since := windowStart(now)
		byDay, err := s.storage.CountClicksByDay(ctx, ids, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load day series: %w", err)
		}
		osStats, err := s.storage.ClicksByOS(ctx, ids, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load os breakdown: %w", err)
		}
		deviceStats, err := s.storage.ClicksByDevice(ctx, ids, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load device breakdown: %w", err)
		}

		payload.ClicksByDate = daySeries(byDay, now)
		payload.OSType = toOSStats(osStats)
		payload.DeviceType = toDeviceStats(deviceStats)
	}

	s.cache.Set(ctx, key, payload)
	return payload, nil
}

// InvalidateLink сбрасывает кешированные срезы, затронутые удалением ссылки
func (s *AnalyticsService) InvalidateLink(ctx context.Context, link *domain.Link) {
	keys := []string{
		cache.AnalyticsLinkKey(link.ID),
		cache.AnalyticsOverallKey(link.UserID),
	}
	if link.Topic != nil {
		keys = append(keys, cache.AnalyticsTopicKey(link.UserID, *link.Topic))
	}
	s.cache.Invalidate(ctx, keys...)
}

// windowStart возвращает начало окна: полночь UTC шесть дней назад
func windowStart(now time.Time) time.Time {
	day := now.AddDate(0, 0, -(windowDays - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// daySeries разворачивает строки агрегата в плотный ряд из 7 дней,
// от старых к новым, с нулями для дней без событий
func daySeries(rows []domain.ClicksPerDay, now time.Time) []DayClicks {
	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day.UTC().Format(dayFormat)] += row.Clicks
	}

	series := make([]DayClicks, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dayFormat)
		series = append(series, DayClicks{Date: date, Clicks: byDay[date]})
	}
	return series
}

func toOSStats(rows []domain.DimensionStat) []OSStat {
	stats := make([]OSStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, OSStat{OSName: row.Name, UniqueClicks: row.Clicks, UniqueUsers: row.UniqueIPs})
	}
	return stats
}

func toDeviceStats(rows []domain.DimensionStat) []DeviceStat {
	stats := make([]DeviceStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, DeviceStat{DeviceName: row.Name, UniqueClicks: row.Clicks, UniqueUsers: row.UniqueIPs})
	}
	return stats
}
