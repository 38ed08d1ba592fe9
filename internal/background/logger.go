package background

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/pkg/models"
)

// JobCompletionLogger emits one structured JSON line per finished job so
// log shippers can track job outcomes without querying the store.
type JobCompletionLogger struct {
	logger types.Logger
}

// NewJobCompletionLogger creates a new job completion logger
func NewJobCompletionLogger() *JobCompletionLogger {
	return &JobCompletionLogger{
		logger: logging.GetGlobalLogger(),
	}
}

// JobCompletionLog represents the structured log entry for job completion
type JobCompletionLog struct {
	JobID          string           `json:"jobId"`
	Status         models.JobStatus `json:"status"`
	Total          int              `json:"total"`
	Processed      int              `json:"processed"`
	Error          string           `json:"error,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
	Operation      string           `json:"operation"`
	ProcessingTime string           `json:"processing_time"`
}

// LogJobCompletion writes the completion entry to stdout.
func (l *JobCompletionLogger) LogJobCompletion(job *models.EnrichmentJob, processingTime time.Duration) {
	entry := JobCompletionLog{
		JobID:          job.ID,
		Status:         job.Status,
		Total:          job.Total,
		Processed:      job.Processed,
		Error:          job.Error,
		Timestamp:      time.Now(),
		Operation:      "enrich",
		ProcessingTime: processingTime.String(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("Failed to marshal job completion log", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
		return
	}

	fmt.Fprintln(os.Stdout, string(data))

	l.logger.Info("Enrichment job finished", map[string]interface{}{
		"job_id":    job.ID,
		"status":    string(job.Status),
		"processed": job.Processed,
		"total":     job.Total,
	})
}
