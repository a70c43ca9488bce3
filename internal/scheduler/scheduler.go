package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/aegis-ratings/pkg/logger"
)

// ErrJobRunning is returned when a job is triggered while still running
var ErrJobRunning = errors.New("job already running")

// Config controls retries
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig retries a failed job once after a minute
func DefaultConfig() Config {
	return Config{MaxRetries: 1, RetryDelay: time.Minute}
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	config  Config
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	running map[string]string // lock key -> running job name
	mu      sync.RWMutex

	// Stop 시 실행 중인 작업 취소
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler
func New(log *logger.Logger, config Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  log.WithField("module", "scheduler"),
		config:  config,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		history: make(map[string]*JobHistory),
		running: make(map[string]string),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		if _, err := s.RunJob(s.ctx, jobName); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.WithError(err).WithField("job", jobName).Error("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next scheduled time, zero before Start
func (s *Scheduler) NextRun(jobName string) (time.Time, error) {
	s.mu.RLock()
	id, exists := s.entries[jobName]
	s.mu.RUnlock()
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", jobName)
	}
	return s.cron.Entry(id).Next, nil
}

// RunJob runs a job now and waits for it, retrying on failure.
// A job never runs twice at the same time, nor alongside a job of its group.
func (s *Scheduler) RunJob(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.Lock()
	job, exists := s.jobs[jobName]
	if !exists {
		s.mu.Unlock()
		return JobResult{}, fmt.Errorf("job %s not found", jobName)
	}
	key := lockKey(job)
	if holder, busy := s.running[key]; busy {
		s.mu.Unlock()
		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"running": holder,
		}).Warn("Job still running, skipped")
		return JobResult{}, ErrJobRunning
	}
	s.running[key] = jobName
	s.mu.Unlock()

	result := s.runJob(ctx, job)

	s.mu.Lock()
	delete(s.running, key)
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if !result.Success {
		return result, errors.New(result.Error)
	}
	return result, nil
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(ctx context.Context, job Job) JobResult {
	jobName := job.Name()
	result := JobResult{JobName: jobName, StartTime: time.Now()}

	s.logger.WithField("job", jobName).Info("Job started")

	var lastErr error
retry:
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		lastErr = job.Run(ctx)
		if lastErr == nil {
			result.Success = true
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed")

		if attempt == s.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = fmt.Errorf("%w (retry aborted: %v)", lastErr, ctx.Err())
			break retry
		case <-time.After(s.config.RetryDelay):
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if result.Success {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration,
		}).Info("Job completed successfully")
	} else {
		result.Error = lastErr.Error()
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}

	return result
}

// GetJobHistory returns the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for jobName, job := range s.jobs {
		history := s.history[jobName]
		ok, failed := history.Counts()

		st := JobStats{
			JobName:      jobName,
			Schedule:     job.Schedule(),
			TotalRuns:    ok + failed,
			SuccessCount: ok,
			FailureCount: failed,
			SuccessRate:  history.SuccessRate(),
		}

		if last, found := history.Last(); found {
			at := last.StartTime
			st.LastRun = &at
			if last.Success {
				st.LastSuccess = &at
			} else {
				st.LastFailure = &at
			}
		}
		stats[jobName] = st
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
