package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-ratings/pkg/logger"
)

// RatingJob recomputes factors and ratings from stored data
type RatingJob struct {
	runner   Runner
	schedule string
	logger   *logger.Logger
}

// NewRatingJob creates a new rating job
func NewRatingJob(runner Runner, schedule string, log *logger.Logger) *RatingJob {
	return &RatingJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RatingJob) Name() string {
	return "rating"
}

// Group keeps collection and rating passes from overlapping
func (j *RatingJob) Group() string {
	return PipelineGroup
}

// Schedule returns the cron schedule
func (j *RatingJob) Schedule() string {
	return j.schedule
}

// Run executes the factor and ranking stages
func (j *RatingJob) Run(ctx context.Context) error {
	summary, err := j.runner.Rate(ctx)
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}

	if summary.Ranking != nil {
		j.logger.WithFields(map[string]interface{}{
			"run_id": summary.RunID,
			"rated":  summary.Ranking.Rated,
		}).Info("Scheduled rating completed")
	}
	return nil
}
