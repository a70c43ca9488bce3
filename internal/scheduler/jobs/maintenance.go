package jobs

import (
	"context"
	"time"

	"github.com/wonny/aegis-ratings/pkg/logger"
)

// Pruner removes export files older than a cutoff
type Pruner interface {
	Prune(olderThan time.Time) (int, error)
}

// ExportCleanupJob removes old ratings exports and summary archives
type ExportCleanupJob struct {
	pruner    Pruner
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewExportCleanupJob creates a new export cleanup job
func NewExportCleanupJob(pruner Pruner, retention time.Duration, log *logger.Logger) *ExportCleanupJob {
	return &ExportCleanupJob{
		pruner:    pruner,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *ExportCleanupJob) Name() string {
	return "export_cleanup"
}

// Schedule returns the cron schedule (daily at 3 AM)
func (j *ExportCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the export cleanup
func (j *ExportCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled export cleanup")

	count, err := j.pruner.Prune(j.now().Add(-j.retention))
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Export cleanup completed")
	}

	return nil
}
