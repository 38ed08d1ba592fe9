package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/enrich"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

// Orchestrator configuration bounds
const (
	DefaultMaxWorkers   = 4
	DefaultMaxQueueSize = 100

	MinWorkers   = 1
	MaxWorkers   = 100
	MinQueueSize = 1
	MaxQueueSize = 10000
)

// Orchestrator runs enrichment jobs in the background. Submission returns
// a job id immediately; callers poll the job store for progress and results.
type Orchestrator struct {
	config       *config.Config
	store        JobStore
	factory      scraper.FetcherFactory
	logger       *JobCompletionLogger
	appLogger    types.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	jobChan      chan *jobExecution
	maxWorkers   int
	maxQueueSize int
}

type jobExecution struct {
	jobID string
	items []*models.ListingRecord
	run   func(context.Context, *models.EnrichmentJob)
}

// validateOrchestratorConfig validates and returns safe configuration values
func validateOrchestratorConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.Workers.PoolSize
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers < MinWorkers || maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) outside allowed range [%d, %d]", maxWorkers, MinWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.Jobs.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize < MinQueueSize || maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("job queue size (%d) outside allowed range [%d, %d]", maxQueueSize, MinQueueSize, MaxQueueSize)
	}

	return maxWorkers, maxQueueSize, nil
}

// NewOrchestrator creates a background enrichment orchestrator.
func NewOrchestrator(cfg *config.Config, store JobStore, factory scraper.FetcherFactory) *Orchestrator {
	appLogger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateOrchestratorConfig(cfg)
	if err != nil {
		appLogger.Warn("Orchestrator configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	return &Orchestrator{
		config:       cfg,
		store:        store,
		factory:      factory,
		logger:       NewJobCompletionLogger(),
		appLogger:    appLogger,
		jobChan:      make(chan *jobExecution, maxQueueSize),
		maxWorkers:   maxWorkers,
		maxQueueSize: maxQueueSize,
	}
}

// Start starts the orchestrator workers and the expiry routine.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("orchestrator already running")
	}

	o.ctx, o.cancel = context.WithCancel(ctx)
	o.running = true

	for i := 0; i < o.maxWorkers; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}

	o.wg.Add(1)
	go o.cleanupRoutine()

	o.appLogger.Info("Enrichment orchestrator started", map[string]interface{}{
		"max_workers": o.maxWorkers,
	})
	return nil
}

// Stop stops the orchestrator gracefully. Submissions are rejected before
// the channel closes, so a late SubmitEnrichment can never send on a closed
// channel; workers drain whatever is still queued and fail those jobs.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	o.cancel()
	close(o.jobChan)
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.appLogger.Info("Enrichment orchestrator stopped gracefully")
	case <-ctx.Done():
		o.appLogger.Warn("Enrichment orchestrator shutdown timed out")
	}

	return nil
}

// SubmitEnrichment accepts a batch of listings for background price
// enrichment and returns the job id right away. The job starts pending and
// moves through active to completed or failed.
func (o *Orchestrator) SubmitEnrichment(ctx context.Context, req *models.EnrichListingsRequest) (string, error) {
	// The read lock is held through the channel send so Stop cannot close
	// jobChan between the health check and the send.
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.running || o.ctx.Err() != nil {
		return "", fmt.Errorf("orchestrator is not healthy")
	}

	jobID := utils.GenerateJobID()

	total := 0
	for _, item := range req.Items {
		if item.PriceSource == models.PriceSourceMissing {
			total++
		}
	}

	job := &models.EnrichmentJob{
		ID:        jobID,
		Status:    models.JobStatusPending,
		Total:     total,
		CreatedAt: time.Now(),
	}

	if err := o.store.Store(ctx, job); err != nil {
		return "", fmt.Errorf("failed to store job: %w", err)
	}

	engine := ""
	if req.Options != nil {
		engine = req.Options.Engine
	}

	execution := &jobExecution{
		jobID: jobID,
		items: req.Items,
		run: func(runCtx context.Context, state *models.EnrichmentJob) {
			o.runEnrichment(runCtx, state, req.Items, engine)
		},
	}

	select {
	case o.jobChan <- execution:
		o.appLogger.Info("Enrichment job accepted", map[string]interface{}{
			"job_id": jobID,
			"items":  len(req.Items),
			"total":  total,
		})
		return jobID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("job queue is full")
	}
}

// GetJob retrieves the current state of a job by id.
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*models.EnrichmentJob, error) {
	return o.store.Get(ctx, jobID)
}

// IsHealthy checks if the orchestrator accepts new jobs.
func (o *Orchestrator) IsHealthy() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running && o.ctx.Err() == nil
}

func (o *Orchestrator) worker(workerID int) {
	defer o.wg.Done()

	// Ranging over the channel drains jobs still queued at shutdown;
	// those are failed instead of being left pending forever.
	for execution := range o.jobChan {
		if o.ctx.Err() != nil {
			o.discardQueued(execution)
			continue
		}
		o.processJob(workerID, execution)
	}
}

// discardQueued fails a job that was still queued when shutdown began.
func (o *Orchestrator) discardQueued(execution *jobExecution) {
	job, err := o.store.Get(context.Background(), execution.jobID)
	if err != nil {
		return
	}
	o.failJob(job, "orchestrator stopped before the job started")
}

func (o *Orchestrator) processJob(workerID int, execution *jobExecution) {
	startTime := time.Now()

	job, err := o.store.Get(o.ctx, execution.jobID)
	if err != nil {
		o.appLogger.Error("Job state missing at start of processing", map[string]interface{}{
			"worker_id": workerID,
			"job_id":    execution.jobID,
			"error":     err.Error(),
		})
		return
	}

	job.Status = models.JobStatusActive
	if err := o.store.Update(o.ctx, job); err != nil {
		o.appLogger.Error("Failed to mark job active", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}

	defer func() {
		if r := recover(); r != nil {
			o.failJob(job, fmt.Sprintf("panic during enrichment: %v", r))
		}
	}()

	execution.run(o.ctx, job)

	o.logger.LogJobCompletion(job, time.Since(startTime))
}

// runEnrichment performs the actual enrichment pass and records progress
// in the job store after every finished item.
func (o *Orchestrator) runEnrichment(ctx context.Context, job *models.EnrichmentJob, items []*models.ListingRecord, engine string) {
	fetcher, err := o.factory.CreateFetcher(engine)
	if err != nil {
		o.failJob(job, err.Error())
		return
	}

	scheduler := enrich.NewScheduler(fetcher, o.config)

	// The scheduler invokes the progress sink from every worker goroutine;
	// the mutex serializes the record mutation and the store write.
	var progressMu sync.Mutex
	progress := func(processed, total int) {
		progressMu.Lock()
		defer progressMu.Unlock()
		if processed > job.Processed {
			job.Processed = processed
		}
		job.Total = total
		if err := o.store.Update(ctx, job); err != nil {
			o.appLogger.Debug("Failed to record job progress", map[string]interface{}{
				"job_id": job.ID,
				"error":  err.Error(),
			})
		}
	}

	processed := scheduler.EnrichAll(ctx, items, progress)

	if ctx.Err() != nil && processed < job.Total {
		o.failJob(job, fmt.Sprintf("enrichment interrupted: %v", ctx.Err()))
		return
	}

	job.Status = models.JobStatusCompleted
	job.Processed = processed
	job.Results = items
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err := o.store.Update(ctx, job); err != nil {
		o.appLogger.Error("Failed to store completed job", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}
}

func (o *Orchestrator) failJob(job *models.EnrichmentJob, reason string) {
	job.Status = models.JobStatusFailed
	job.Error = reason
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err := o.store.Update(context.Background(), job); err != nil {
		o.appLogger.Error("Failed to store failed job", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}
}

// cleanupRoutine periodically drops expired job records.
func (o *Orchestrator) cleanupRoutine() {
	defer o.wg.Done()

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			if err := o.store.Cleanup(context.Background(), o.config.Jobs.TTL); err != nil {
				o.appLogger.Error("Failed to cleanup expired jobs", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
