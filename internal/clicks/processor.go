package clicks

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/geo"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/pkg/useragent"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClickData represents a visit to be recorded asynchronously
type ClickData struct {
	LinkID    uuid.UUID
	UserID    uuid.UUID
	Alias     string
	IPAddress *string
	UserAgent string
	Referer   *string
	ClickedAt time.Time

	// Insert state carried across retries so a counter-update failure does
	// not duplicate the raw event or re-run uniqueness classification
	persisted bool
	isUnique  bool
}

// ProcessorConfig holds configuration for the click processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of retry attempts for failed jobs
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Processor records clicks asynchronously so that analytics persistence never
// delays or fails the redirect being served. Each click is enriched with
// parsed user-agent and geo data, classified for uniqueness, persisted, and
// the link counters are updated atomically.
type Processor struct {
	config     ProcessorConfig
	storage    repository.Storage
	classifier *Classifier
	uaParser   *useragent.Parser
	geo        geo.Resolver
	log        *zap.Logger
	jobQueue   chan *ClickData
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	mu         sync.RWMutex
}

// NewProcessor creates a new click processor
func NewProcessor(storage repository.Storage, classifier *Classifier, uaParser *useragent.Parser, geoResolver geo.Resolver, log *zap.Logger, config ProcessorConfig) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		config:     config,
		storage:    storage,
		classifier: classifier,
		uaParser:   uaParser,
		geo:        geoResolver,
		log:        log,
		jobQueue:   make(chan *ClickData, config.BufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins processing clicks
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}

	p.log.Info("starting click processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop gracefully shuts down the processor
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	p.log.Info("stopping click processor")

	p.cancel()
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("click processor stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.log.Warn("click processor shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.started = false
	return nil
}

// Submit enqueues a click for asynchronous recording
func (p *Processor) Submit(clickData *ClickData) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("processor not started")
	}

	select {
	case p.jobQueue <- clickData:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("processor is shutting down")
	default:
		p.log.Error("click queue is full, dropping click",
			zap.String("alias", clickData.Alias),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return fmt.Errorf("click queue is full")
	}
}

// worker processes clicks with retry logic
func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Info("click worker started")

	for {
		select {
		case clickData := <-p.jobQueue:
			if clickData == nil {
				// Channel closed, worker should exit
				log.Info("click worker stopped")
				return
			}

			p.recordWithRetry(log, clickData)

		case <-p.ctx.Done():
			log.Info("click worker received shutdown signal")
			return
		}
	}
}

// recordWithRetry records a single click with exponential-backoff retries
func (p *Processor) recordWithRetry(log *zap.Logger, clickData *ClickData) {
	var lastErr error

	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
		err := p.record(ctx, clickData)
		cancel()

		if err == nil {
			if attempt > 1 {
				log.Info("click recording succeeded after retry",
					zap.String("alias", clickData.Alias),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("click recording failed",
			zap.String("alias", clickData.Alias),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.RetryAttempts),
			zap.Error(err),
		)

		if attempt == p.config.RetryAttempts {
			break
		}

		delay := p.config.RetryDelay * time.Duration(1<<(attempt-1))

		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			log.Info("worker shutdown during retry delay")
			return
		}
	}

	// Best-effort delivery: the redirect was already served, the click is lost
	log.Error("click recording failed after all retries",
		zap.String("alias", clickData.Alias),
		zap.Int("attempts", p.config.RetryAttempts),
		zap.Error(lastErr),
	)
}

// record enriches, classifies and persists a single click, then updates the
// link counters
func (p *Processor) record(ctx context.Context, clickData *ClickData) error {
	if !clickData.persisted {
		device := p.uaParser.Parse(clickData.UserAgent)

		var location geo.Location
		if clickData.IPAddress != nil && *clickData.IPAddress != "" {
			location = p.geo.Lookup(*clickData.IPAddress)
		}

		// Uniqueness is decided before the insert so the prior-visit query
		// does not see the click being recorded
		isUnique, err := p.classifier.Classify(ctx, clickData.LinkID, clickData.IPAddress, clickData.ClickedAt)
		if err != nil {
			return err
		}

		click := &domain.Click{
			LinkID:      clickData.LinkID,
			UserID:      clickData.UserID,
			IPAddress:   clickData.IPAddress,
			UserAgent:   clickData.UserAgent,
			Referer:     clickData.Referer,
			Country:     location.Country,
			Region:      location.Region,
			City:        location.City,
			DeviceType:  device.DeviceType,
			OSName:      device.OS,
			BrowserName: device.Browser,
			IsUnique:    isUnique,
			CreatedAt:   clickData.ClickedAt,
		}

		if err := p.storage.CreateClick(ctx, click); err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}
		clickData.persisted = true
		clickData.isUnique = isUnique
	}

	if err := p.storage.IncrementClickCounts(ctx, clickData.LinkID, clickData.isUnique); err != nil {
		if err == repository.ErrAliasNotFound {
			// Link deleted between redirect and recording, nothing to update
			return nil
		}
		return fmt.Errorf("failed to update click counts: %w", err)
	}

	p.log.Debug("click recorded",
		zap.String("alias", clickData.Alias),
		zap.Bool("is_unique", clickData.isUnique),
	)
	return nil
}

// Stats returns processor queue statistics
func (p *Processor) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
	}
}
