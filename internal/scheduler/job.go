package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a six-field cron spec (seconds first) or a descriptor like "@daily"
	Schedule() string
}

// Grouped jobs share one run slot with every job of the same group
type Grouped interface {
	Group() string
}

// lockKey is the running-slot key: the group when set, else the job name
func lockKey(job Job) string {
	if g, ok := job.(Grouped); ok && g.Group() != "" {
		return "group:" + g.Group()
	}
	return job.Name()
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const maxHistory = 100

// JobHistory stores job execution history
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest past maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return nil
	}
	return h.Results[len(h.Results)-n:]
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// Counts returns successes and failures over the kept history
func (h *JobHistory) Counts() (ok, failed int) {
	for _, r := range h.Results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// SuccessRate returns ok / total (0.0 - 1.0), 0 without history
func (h *JobHistory) SuccessRate() float64 {
	ok, failed := h.Counts()
	if ok+failed == 0 {
		return 0
	}
	return float64(ok) / float64(ok+failed)
}
