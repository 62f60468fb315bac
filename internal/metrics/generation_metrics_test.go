package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationMetrics_Creation(t *testing.T) {
	t.Run("successfully create generation metrics", func(t *testing.T) {
		metrics, err := NewGenerationMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.jobsStartedCounter)
		assert.NotNil(t, metrics.jobsCompletedCounter)
		assert.NotNil(t, metrics.jobsFailedCounter)
		assert.NotNil(t, metrics.jobDurationHistogram)
		assert.NotNil(t, metrics.componentsCounter)
		assert.NotNil(t, metrics.jobsActiveGauge)
	})
}

func TestGenerationMetrics_RecordJobStarted(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("record job start", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordJobStarted(ctx, "job-123", "react")
		})
	})

	t.Run("record multiple job starts", func(t *testing.T) {
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			metrics.RecordJobStarted(ctx, fmt.Sprintf("job-%d", i), "vue")
		}
	})
}

func TestGenerationMetrics_RecordJobCompleted(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("record job completion with duration", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordJobCompleted(ctx, "job-123", "react", 4, 5*time.Second)
		})
	})

	t.Run("record completion with various durations", func(t *testing.T) {
		ctx := context.Background()
		durations := []time.Duration{
			100 * time.Millisecond,
			1 * time.Second,
			10 * time.Second,
			1 * time.Minute,
		}

		for i, duration := range durations {
			metrics.RecordJobCompleted(ctx, fmt.Sprintf("job-%d", i), "react", i+1, duration)
		}
	})
}

func TestGenerationMetrics_RecordJobFailed(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("record job failure with error type", func(t *testing.T) {
		ctx := context.Background()

		assert.NotPanics(t, func() {
			metrics.RecordJobFailed(ctx, "job-123", "react", "llm_error", 3*time.Second)
		})
	})

	t.Run("record failures with different error types", func(t *testing.T) {
		ctx := context.Background()
		errorTypes := []string{
			"llm_error",
			"timeout_error",
			"validation_error",
			"internal_error",
		}

		for i, errorType := range errorTypes {
			metrics.RecordJobFailed(ctx, fmt.Sprintf("job-%d", i), "react", errorType, time.Duration(i+1)*time.Second)
		}
	})
}

func TestGenerationMetrics_ActiveJobsGauge(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("active jobs counter increments and decrements", func(t *testing.T) {
		ctx := context.Background()

		// Start job (increments active gauge)
		metrics.RecordJobStarted(ctx, "job-abc", "react")

		// Complete job (decrements active gauge)
		metrics.RecordJobCompleted(ctx, "job-abc", "react", 3, 2*time.Second)
	})

	t.Run("active jobs with failures", func(t *testing.T) {
		ctx := context.Background()

		metrics.RecordJobStarted(ctx, "job-def", "vue")

		// Fail job (decrements active gauge)
		metrics.RecordJobFailed(ctx, "job-def", "vue", "llm_error", 1*time.Second)
	})
}

func TestGenerationMetrics_ConcurrentRecording(t *testing.T) {
	metrics, err := NewGenerationMetrics()
	require.NoError(t, err)

	t.Run("handle concurrent metric recording", func(t *testing.T) {
		ctx := context.Background()
		done := make(chan bool)

		// Simulate concurrent generation jobs
		for i := 0; i < 10; i++ {
			go func(id int) {
				jobID := fmt.Sprintf("concurrent-job-%d", id)

				metrics.RecordJobStarted(ctx, jobID, "react")

				// Randomly complete or fail
				duration := time.Duration(id) * 100 * time.Millisecond
				if id%2 == 0 {
					metrics.RecordJobCompleted(ctx, jobID, "react", id, duration)
				} else {
					metrics.RecordJobFailed(ctx, jobID, "react", "llm_error", duration)
				}

				done <- true
			}(i)
		}

		// Wait for all goroutines
		for i := 0; i < 10; i++ {
			<-done
		}
	})
}
