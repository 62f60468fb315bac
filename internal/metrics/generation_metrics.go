package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("generation-metrics")

// GenerationMetrics provides metrics collection for generation jobs
type GenerationMetrics struct {
	jobsStartedCounter   metric.Int64Counter
	jobsCompletedCounter metric.Int64Counter
	jobsFailedCounter    metric.Int64Counter
	jobDurationHistogram metric.Float64Histogram
	componentsCounter    metric.Int64Counter
	jobsActiveGauge      metric.Int64UpDownCounter
}

// NewGenerationMetrics creates a new generation metrics collector
func NewGenerationMetrics() (*GenerationMetrics, error) {
	jobsStartedCounter, err := meter.Int64Counter(
		"orus_builder.jobs.started",
		metric.WithDescription("Total number of generation jobs started"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	jobsCompletedCounter, err := meter.Int64Counter(
		"orus_builder.jobs.completed",
		metric.WithDescription("Total number of generation jobs completed successfully"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	jobsFailedCounter, err := meter.Int64Counter(
		"orus_builder.jobs.failed",
		metric.WithDescription("Total number of generation jobs that failed"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	jobDurationHistogram, err := meter.Float64Histogram(
		"orus_builder.job.duration",
		metric.WithDescription("Duration of generation job execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	componentsCounter, err := meter.Int64Counter(
		"orus_builder.components.generated",
		metric.WithDescription("Total number of components generated"),
		metric.WithUnit("{component}"),
	)
	if err != nil {
		return nil, err
	}

	jobsActiveGauge, err := meter.Int64UpDownCounter(
		"orus_builder.jobs.active",
		metric.WithDescription("Number of currently active generation jobs"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{
		jobsStartedCounter:   jobsStartedCounter,
		jobsCompletedCounter: jobsCompletedCounter,
		jobsFailedCounter:    jobsFailedCounter,
		jobDurationHistogram: jobDurationHistogram,
		componentsCounter:    componentsCounter,
		jobsActiveGauge:      jobsActiveGauge,
	}, nil
}

// RecordJobStarted records the start of a generation job
func (gm *GenerationMetrics) RecordJobStarted(ctx context.Context, jobID, framework string) {
	gm.jobsStartedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("framework", framework),
		),
	)
	gm.jobsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("framework", framework),
		),
	)
}

// RecordJobCompleted records a successful generation job
func (gm *GenerationMetrics) RecordJobCompleted(ctx context.Context, jobID, framework string, components int, duration time.Duration) {
	gm.jobsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("framework", framework),
			attribute.String("status", "completed"),
		),
	)
	gm.componentsCounter.Add(ctx, int64(components),
		metric.WithAttributes(
			attribute.String("framework", framework),
		),
	)
	gm.jobDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("framework", framework),
			attribute.String("status", "completed"),
		),
	)
	gm.jobsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("framework", framework),
		),
	)
}

// RecordJobFailed records a failed generation job
func (gm *GenerationMetrics) RecordJobFailed(ctx context.Context, jobID, framework, errorType string, duration time.Duration) {
	gm.jobsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("framework", framework),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	gm.jobDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("framework", framework),
			attribute.String("status", "failed"),
		),
	)
	gm.jobsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("framework", framework),
		),
	)
}
