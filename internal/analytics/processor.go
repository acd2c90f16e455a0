package analytics

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"LinkLab-Backend/pkg/geoip"
	"LinkLab-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotStarted = errors.New("processor not started")
	ErrQueueFull  = errors.New("analytics queue is full")
)

// ClickData is the raw request data captured on the redirect path.
// Enrichment happens in the worker.
type ClickData struct {
	LinkID    int64
	ShortCode string
	IPAddress string
	UserAgent string
	Referer   string
	ClickedAt time.Time
}

type UserAgentParser interface {
	ParseUserAgent(userAgent string) *useragent.DeviceInfo
}

// GeoResolver reports false when the location is unknown. It must not block
// past its own timeout.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (*geoip.Location, bool)
}

// ClickObserver receives one of "submitted", "dropped", "recorded", "failed".
type ClickObserver interface {
	ObserveClick(result string)
}

// ProcessorConfig holds configuration for the analytics processor
type ProcessorConfig struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of insert attempts per click
	RetryDelay      time.Duration // Base delay between retries
	InsertTimeout   time.Duration // Timeout for a single insert attempt
	ShutdownTimeout time.Duration // Time to wait for the queue to drain
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() ProcessorConfig {
	return ProcessorConfig{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		InsertTimeout:   10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Processor records click events asynchronously with a bounded queue and a
// fixed worker pool. Submission never blocks; when the queue is full the
// click is dropped and logged.
type Processor struct {
	config   ProcessorConfig
	storage  repository.ClickStorage
	ua       UserAgentParser
	geo      GeoResolver
	observer ClickObserver
	log      *zap.Logger
	jobQueue chan *ClickData
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex

	submitted atomic.Int64
	dropped   atomic.Int64
	recorded  atomic.Int64
	failed    atomic.Int64
}

type Option func(*Processor)

func WithUserAgentParser(p UserAgentParser) Option {
	return func(pr *Processor) { pr.ua = p }
}

func WithGeoResolver(g GeoResolver) Option {
	return func(pr *Processor) { pr.geo = g }
}

func WithObserver(o ClickObserver) Option {
	return func(pr *Processor) { pr.observer = o }
}

// NewProcessor creates a new analytics processor
func NewProcessor(storage repository.ClickStorage, log *zap.Logger, config ProcessorConfig, opts ...Option) *Processor {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.InsertTimeout <= 0 {
		config.InsertTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Processor{
		config:   config,
		storage:  storage,
		log:      log,
		jobQueue: make(chan *ClickData, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins processing analytics data
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("processor already started")
	}
	if p.ctx.Err() != nil {
		return fmt.Errorf("processor already stopped")
	}

	p.log.Info("starting analytics processor",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize),
		zap.Int("retry_attempts", p.config.RetryAttempts),
	)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop closes the queue, lets workers drain it and waits up to
// ShutdownTimeout. Clicks still queued after the timeout are abandoned.
func (p *Processor) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	p.started = false
	close(p.jobQueue)
	p.mu.Unlock()

	p.log.Info("stopping analytics processor", zap.Int("pending", len(p.jobQueue)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("analytics processor stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("analytics processor shutdown timeout reached",
			zap.Int("abandoned", len(p.jobQueue)))
		return fmt.Errorf("shutdown timeout reached")
	}
}

// SubmitClick queues a click for recording. It never blocks.
func (p *Processor) SubmitClick(clickData *ClickData) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrNotStarted
	}

	select {
	case p.jobQueue <- clickData:
		p.submitted.Add(1)
		p.observe("submitted")
		p.log.Debug("click data submitted for processing", zap.String("short_code", clickData.ShortCode))
		return nil
	default:
		p.dropped.Add(1)
		p.observe("dropped")
		p.log.Error("analytics queue is full, dropping click data",
			zap.String("short_code", clickData.ShortCode),
			zap.Int64("link_id", clickData.LinkID),
			zap.Int("queue_size", len(p.jobQueue)),
		)
		return ErrQueueFull
	}
}

func (p *Processor) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("analytics worker started")

	for clickData := range p.jobQueue {
		if p.ctx.Err() != nil {
			// shutdown timed out, abandon the rest
			return
		}
		p.processClickWithRetry(log, clickData)
	}

	log.Debug("analytics worker stopped")
}

func (p *Processor) processClickWithRetry(log *zap.Logger, clickData *ClickData) {
	// a panic in enrichment or insert must not take the worker down
	defer func() {
		if rec := recover(); rec != nil {
			p.failed.Add(1)
			p.observe("failed")
			log.Error("click processing panicked",
				zap.Int64("link_id", clickData.LinkID),
				zap.String("short_code", clickData.ShortCode),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()

	event := p.buildEvent(clickData)

	var lastErr error
retry:
	for attempt := 1; attempt <= p.config.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(p.ctx, p.config.InsertTimeout)
		err := p.storage.InsertClick(ctx, event)
		cancel()

		if err == nil {
			p.recorded.Add(1)
			p.observe("recorded")
			if attempt > 1 {
				log.Info("click recorded after retry",
					zap.String("short_code", clickData.ShortCode),
					zap.Int("attempt", attempt),
				)
			}
			return
		}

		lastErr = err
		log.Warn("click insert failed",
			zap.String("short_code", clickData.ShortCode),
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
			lastErr = p.ctx.Err()
			break retry
		}
	}

	p.failed.Add(1)
	p.observe("failed")
	log.Error("click recording failed after all retries",
		zap.Int64("link_id", clickData.LinkID),
		zap.String("short_code", clickData.ShortCode),
		zap.Any("event", event),
		zap.Error(lastErr),
	)
}

// buildEvent enriches raw click data. Parser or geo failures leave the
// corresponding fields nil.
func (p *Processor) buildEvent(clickData *ClickData) *domain.ClickEvent {
	event := &domain.ClickEvent{
		URLID:     clickData.LinkID,
		ClickedAt: clickData.ClickedAt,
		IPAddress: clickData.IPAddress,
		UserAgent: clickData.UserAgent,
		IsUnique:  true,
	}
	if event.ClickedAt.IsZero() {
		event.ClickedAt = time.Now()
	}
	if clickData.Referer != "" {
		event.Referer = strPtr(clickData.Referer)
	}

	if p.ua != nil && clickData.UserAgent != "" {
		if info := p.ua.ParseUserAgent(clickData.UserAgent); info != nil {
			event.DeviceType = strPtr(info.DeviceType)
			event.Browser = strPtr(info.Browser)
			event.BrowserVersion = strPtr(info.BrowserVersion)
			event.OS = strPtr(info.OS)
			event.OSVersion = strPtr(info.OSVersion)
		}
	}

	if p.geo != nil && clickData.IPAddress != "" {
		if loc, ok := p.geo.Resolve(p.ctx, clickData.IPAddress); ok && loc != nil {
			event.Country = strPtr(loc.Country)
			event.Region = strPtr(loc.Region)
			event.City = strPtr(loc.City)
		}
	}

	return event
}

// GetStats returns processor statistics
func (p *Processor) GetStats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.jobQueue),
		"queue_capacity": cap(p.jobQueue),
		"worker_count":   p.config.WorkerCount,
		"retry_attempts": p.config.RetryAttempts,
		"submitted":      p.submitted.Load(),
		"dropped":        p.dropped.Load(),
		"recorded":       p.recorded.Load(),
		"failed":         p.failed.Load(),
	}
}

func (p *Processor) observe(result string) {
	if p.observer != nil {
		p.observer.ObserveClick(result)
	}
}

// strPtr returns nil for empty strings so absent values stay NULL.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
