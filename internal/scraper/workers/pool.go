package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

// PipelineFunc runs the full scrape for one request and reports whether the
// result came from cache.
type PipelineFunc func(ctx context.Context, req *models.ScrapeListingsRequest) (*models.ScrapeResult, bool, error)

// JobResult represents the result of a scraping job
type JobResult struct {
	Result    *models.ScrapeResult
	Cached    bool
	Error     error
	RequestID string
	Duration  time.Duration
}

// ScrapeJob represents a job to be processed by workers
type ScrapeJob struct {
	ID         string
	Request    *models.ScrapeListingsRequest
	ResultChan chan JobResult
	Context    context.Context
	CreatedAt  time.Time
}

// Worker represents a single worker goroutine
type Worker struct {
	ID       int
	JobChan  chan ScrapeJob
	QuitChan chan bool
	Pool     *WorkerPool
	logger   types.Logger
}

// WorkerPool manages multiple worker goroutines and job queue
type WorkerPool struct {
	config      *config.Config
	workers     []*Worker
	jobQueue    chan ScrapeJob
	dispatcher  *Dispatcher
	rateLimiter *RateLimiter
	pipeline    PipelineFunc
	logger      types.Logger
	mu          sync.RWMutex
	running     bool
	stats       *poolStats
}

// poolStats is the pool's internal mutable counter set.
type poolStats struct {
	mu                  sync.RWMutex
	JobsQueued          int64
	JobsProcessed       int64
	JobsSuccessful      int64
	JobsFailed          int64
	TotalProcessingTime time.Duration
}

// PoolStats is a point-in-time snapshot of pool statistics, safe to copy.
type PoolStats struct {
	JobsQueued            int64
	JobsProcessed         int64
	JobsSuccessful        int64
	JobsFailed            int64
	TotalProcessingTime   time.Duration
	AverageProcessingTime time.Duration
}

// NewWorkerPool creates a new worker pool instance
func NewWorkerPool(cfg *config.Config, pipeline PipelineFunc) *WorkerPool {
	logger := logging.GetGlobalLogger()

	pool := &WorkerPool{
		config:      cfg,
		jobQueue:    make(chan ScrapeJob, cfg.Workers.QueueSize),
		rateLimiter: NewRateLimiter(cfg),
		pipeline:    pipeline,
		logger:      logger,
		stats:       &poolStats{},
	}

	pool.workers = make([]*Worker, cfg.Workers.PoolSize)
	for i := 0; i < cfg.Workers.PoolSize; i++ {
		worker := &Worker{
			ID:       i + 1,
			JobChan:  make(chan ScrapeJob),
			QuitChan: make(chan bool),
			Pool:     pool,
			logger:   logger.WithField("worker_id", i+1),
		}
		pool.workers[i] = worker
	}

	pool.dispatcher = NewDispatcher(pool.jobQueue, pool.workers)

	logger.Info("Worker pool initialized", map[string]interface{}{
		"pool_size": cfg.Workers.PoolSize,
	})
	return pool
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	wp.logger.Info("Starting worker pool")

	wp.dispatcher.Start()

	for _, worker := range wp.workers {
		go worker.Start()
	}

	wp.running = true
	wp.logger.Info("Worker pool started successfully", map[string]interface{}{
		"workers": len(wp.workers),
	})
	return nil
}

// Stop stops the worker pool gracefully
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return nil
	}

	wp.logger.Info("Stopping worker pool")

	wp.dispatcher.Stop()

	for _, worker := range wp.workers {
		worker.Stop()
	}

	close(wp.jobQueue)
	wp.rateLimiter.Stop()

	wp.running = false
	wp.logger.Info("Worker pool stopped successfully")
	return nil
}

// SubmitJob submits a new scraping job to the pool and waits for its result
func (wp *WorkerPool) SubmitJob(ctx context.Context, req *models.ScrapeListingsRequest) (*JobResult, error) {
	if !wp.IsRunning() {
		return nil, fmt.Errorf("worker pool is not running")
	}

	domain := extractDomain(req.URL)
	if !wp.rateLimiter.Allow(domain) {
		return nil, fmt.Errorf("rate limit exceeded for domain: %s", domain)
	}

	job := ScrapeJob{
		ID:         utils.GenerateRequestID(),
		Request:    req,
		ResultChan: make(chan JobResult, 1),
		Context:    ctx,
		CreatedAt:  time.Now(),
	}

	wp.stats.mu.Lock()
	wp.stats.JobsQueued++
	wp.stats.mu.Unlock()

	select {
	case wp.jobQueue <- job:
		wp.logger.Info("Job submitted to queue", map[string]interface{}{
			"job_id": job.ID,
			"url":    req.URL,
		})
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("job queue is full, request timed out")
	}

	timeout := wp.config.Workers.Timeout
	if req.Options != nil && req.Options.Timeout > 0 {
		timeout = req.Options.Timeout
	}

	select {
	case result := <-job.ResultChan:
		return &result, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("job processing timed out after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true if the worker pool is running
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns current pool statistics
func (wp *WorkerPool) GetStats() PoolStats {
	wp.stats.mu.RLock()
	defer wp.stats.mu.RUnlock()

	stats := PoolStats{
		JobsQueued:          wp.stats.JobsQueued,
		JobsProcessed:       wp.stats.JobsProcessed,
		JobsSuccessful:      wp.stats.JobsSuccessful,
		JobsFailed:          wp.stats.JobsFailed,
		TotalProcessingTime: wp.stats.TotalProcessingTime,
	}
	if stats.JobsProcessed > 0 {
		stats.AverageProcessingTime = stats.TotalProcessingTime / time.Duration(stats.JobsProcessed)
	}

	return stats
}

// GetRateLimiterStats returns per-domain rate limiter statistics
func (wp *WorkerPool) GetRateLimiterStats() map[string]map[string]interface{} {
	return wp.rateLimiter.GetAllStats()
}

// Start starts the worker goroutine
func (w *Worker) Start() {
	w.logger.Info("Worker started")

	for {
		select {
		case job := <-w.JobChan:
			w.processJob(job)
		case <-w.QuitChan:
			w.logger.Info("Worker stopping")
			return
		}
	}
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.QuitChan <- true
}

// processJob processes a single scraping job
func (w *Worker) processJob(job ScrapeJob) {
	startTime := time.Now()

	w.logger.Debug("Processing job", map[string]interface{}{
		"job_id": job.ID,
		"url":    job.Request.URL,
	})

	w.Pool.stats.mu.Lock()
	w.Pool.stats.JobsProcessed++
	w.Pool.stats.mu.Unlock()

	result := w.runPipeline(job)

	processingTime := time.Since(startTime)
	result.Duration = processingTime

	w.Pool.stats.mu.Lock()
	w.Pool.stats.TotalProcessingTime += processingTime
	if result.Error != nil {
		w.Pool.stats.JobsFailed++
	} else {
		w.Pool.stats.JobsSuccessful++
	}
	w.Pool.stats.mu.Unlock()

	// Send result back (non-blocking)
	select {
	case job.ResultChan <- result:
		w.logger.Info("Job completed", map[string]interface{}{
			"job_id":          job.ID,
			"processing_time": processingTime.String(),
			"success":         result.Error == nil,
		})
	case <-time.After(100 * time.Millisecond):
		w.logger.Debug("Result channel timeout - client may have disconnected", map[string]interface{}{
			"job_id": job.ID,
		})
	}
}

// runPipeline performs the actual scraping work for one job
func (w *Worker) runPipeline(job ScrapeJob) JobResult {
	result := JobResult{
		RequestID: job.ID,
	}

	domain := extractDomain(job.Request.URL)

	scrapeResult, cached, err := w.Pool.pipeline(job.Context, job.Request)
	if err != nil {
		result.Error = err
		w.Pool.rateLimiter.RecordFailure(domain, err)
		return result
	}

	result.Result = scrapeResult
	result.Cached = cached
	w.Pool.rateLimiter.RecordSuccess(domain)

	w.logger.Debug("Scraping job completed successfully", map[string]interface{}{
		"job_id": job.ID,
		"items":  scrapeResult.Count,
		"cached": cached,
	})

	return result
}

// extractDomain extracts domain from URL for rate limiting
func extractDomain(url string) string {
	return extractDomainFromURL(url)
}
