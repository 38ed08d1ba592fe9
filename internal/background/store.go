package background

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/pkg/models"
)

// ErrJobNotFound is returned when a job id has no stored state, either
// because it never existed or because its record expired.
var ErrJobNotFound = errors.New("job not found")

// JobStore persists enrichment job state for status polling.
type JobStore interface {
	// Store stores a job record
	Store(ctx context.Context, job *models.EnrichmentJob) error

	// Get retrieves a job by id
	Get(ctx context.Context, jobID string) (*models.EnrichmentJob, error)

	// Update updates an existing job record
	Update(ctx context.Context, job *models.EnrichmentJob) error

	// Cleanup removes expired job records
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// NewJobStore returns a Redis-backed store when Redis is reachable and
// falls back to the in-memory store otherwise.
func NewJobStore(cfg *config.Config) JobStore {
	logger := logging.GetGlobalLogger()

	store, err := NewRedisJobStore(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory job store", map[string]interface{}{
			"error": err.Error(),
		})
		return NewInMemoryJobStore()
	}

	logger.Info("Using Redis job store", map[string]interface{}{
		"ttl": cfg.Jobs.TTL.String(),
	})
	return store
}

// InMemoryJobStore implements JobStore using in-memory storage. Records go
// in and come out as copies, matching the serialization boundary of the
// Redis store, so a status poller never shares a pointer with the worker
// still mutating the job.
type InMemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.EnrichmentJob
}

// NewInMemoryJobStore creates a new in-memory job store
func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: make(map[string]*models.EnrichmentJob),
	}
}

func cloneJob(job *models.EnrichmentJob) *models.EnrichmentJob {
	clone := *job
	if job.Results != nil {
		clone.Results = append([]*models.ListingRecord(nil), job.Results...)
	}
	if job.CompletedAt != nil {
		completedAt := *job.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}

func (s *InMemoryJobStore) Store(ctx context.Context, job *models.EnrichmentJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *InMemoryJobStore) Get(ctx context.Context, jobID string) (*models.EnrichmentJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *InMemoryJobStore) Update(ctx context.Context, job *models.EnrichmentJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; !exists {
		return ErrJobNotFound
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *InMemoryJobStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for jobID, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
		}
	}
	return nil
}

const redisJobKeyPrefix = "marktscan:job:"

// RedisJobStore implements JobStore on Redis with key-level TTL, so expiry
// needs no cleanup pass of its own.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisJobStore creates a Redis-backed job store. Fails when the server
// cannot be reached at startup.
func NewRedisJobStore(cfg *config.Config) (*RedisJobStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
	}

	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisJobStore{
		client: client,
		ttl:    cfg.Jobs.TTL,
	}, nil
}

func (s *RedisJobStore) Store(ctx context.Context, job *models.EnrichmentJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisJobKeyPrefix+job.ID, data, s.ttl).Err()
}

func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*models.EnrichmentJob, error) {
	data, err := s.client.Get(ctx, redisJobKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job models.EnrichmentJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisJobStore) Update(ctx context.Context, job *models.EnrichmentJob) error {
	key := redisJobKeyPrefix + job.ID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrJobNotFound
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	// Keep the original expiry window instead of extending it on update.
	return s.client.Set(ctx, key, data, redis.KeepTTL).Err()
}

func (s *RedisJobStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	// Redis drops expired keys itself.
	return nil
}

// Close closes the Redis connection
func (s *RedisJobStore) Close() error {
	return s.client.Close()
}
