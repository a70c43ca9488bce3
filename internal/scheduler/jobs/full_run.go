package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// PipelineGroup is the run slot shared by every job that writes components or ratings
const PipelineGroup = "pipeline"

// Runner is the pipeline entry point the jobs drive
type Runner interface {
	RunFullCollection(ctx context.Context, useFullDataset bool, maxWorkers int) (*contracts.RunSummary, error)
	Rate(ctx context.Context) (*contracts.RunSummary, error)
}

// FullRunJob collects data and rates the universe
// ⭐ SSOT: 전체 수집 스케줄은 이 Job에서만
type FullRunJob struct {
	runner      Runner
	schedule    string
	fullDataset bool
	workers     int
	logger      *logger.Logger
}

// NewFullRunJob creates a new full-run job. workers <= 0 keeps the configured pool.
func NewFullRunJob(runner Runner, schedule string, fullDataset bool, workers int, log *logger.Logger) *FullRunJob {
	return &FullRunJob{
		runner:      runner,
		schedule:    schedule,
		fullDataset: fullDataset,
		workers:     workers,
		logger:      log,
	}
}

// Name returns the job name
func (j *FullRunJob) Name() string {
	return "full_collection"
}

// Group keeps collection and rating passes from overlapping
func (j *FullRunJob) Group() string {
	return PipelineGroup
}

// Schedule returns the cron schedule (weekdays after US close by default)
func (j *FullRunJob) Schedule() string {
	return j.schedule
}

// Run executes the full collection
func (j *FullRunJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled full collection")

	summary, err := j.runner.RunFullCollection(ctx, j.fullDataset, j.workers)
	if err != nil {
		return fmt.Errorf("full collection: %w", err)
	}

	fields := map[string]interface{}{"run_id": summary.RunID}
	if summary.Collection != nil {
		fields["collected"] = summary.Collection.Success
		fields["failed"] = summary.Collection.Failure
	}
	if summary.Ranking != nil {
		fields["rated"] = summary.Ranking.Rated
	}
	j.logger.WithFields(fields).Info("Scheduled full collection completed")

	return nil
}
