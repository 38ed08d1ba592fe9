package background

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/pkg/models"
)

func TestInMemoryJobStoreLifecycle(t *testing.T) {
	store := NewInMemoryJobStore()
	ctx := context.Background()

	job := &models.EnrichmentJob{
		ID:        "job-1",
		Status:    models.JobStatusPending,
		Total:     3,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Store(ctx, job))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)

	job.Status = models.JobStatusActive
	job.Processed = 2
	require.NoError(t, store.Update(ctx, job))

	got, err = store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusActive, got.Status)
	assert.Equal(t, 2, got.Processed)
}

func TestInMemoryJobStoreNotFound(t *testing.T) {
	store := NewInMemoryJobStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	err = store.Update(ctx, &models.EnrichmentJob{ID: "missing"})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestInMemoryJobStoreReturnsCopies(t *testing.T) {
	store := NewInMemoryJobStore()
	ctx := context.Background()

	job := &models.EnrichmentJob{
		ID:        "job-1",
		Status:    models.JobStatusPending,
		Total:     5,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Store(ctx, job))

	// Mutating the caller's record after storing must not leak in.
	job.Status = models.JobStatusFailed

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, got.Status)

	// Mutating a retrieved record must not leak in either.
	got.Processed = 99

	again, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Zero(t, again.Processed)
}

func TestInMemoryJobStoreCleanup(t *testing.T) {
	store := NewInMemoryJobStore()
	ctx := context.Background()

	old := &models.EnrichmentJob{
		ID:        "old",
		Status:    models.JobStatusCompleted,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	fresh := &models.EnrichmentJob{
		ID:        "fresh",
		Status:    models.JobStatusCompleted,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Store(ctx, old))
	require.NoError(t, store.Store(ctx, fresh))

	require.NoError(t, store.Cleanup(ctx, time.Hour))

	_, err := store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}
