package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-ratings/internal/scheduler"
	"github.com/wonny/aegis-ratings/internal/scheduler/jobs"
)

const exportRetention = 30 * 24 * time.Hour

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/ratings scheduler start
  go run ./cmd/ratings scheduler list
  go run ./cmd/ratings scheduler run rating`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- full_collection: RUN_SCHEDULE (기본 평일 22시, 전체 수집 + 레이팅)
- rating: 평일 23시 30분 (레이팅 재계산)
- export_cleanup: 매일 3시 (30일 지난 내보내기 파일 정리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Ratings Scheduler ===")
	fmt.Println()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println()
	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// next run은 cron이 시작된 뒤에만 계산됨
	sched.Start()
	defer sched.Stop()

	fmt.Println("=== Registered Jobs ===")
	fmt.Println()
	printJobs(sched)

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		PrintError(fmt.Sprintf("Job %s failed after %d attempt(s): %v", jobName, result.Attempts, err))
		return err
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

// initScheduler registers every job on a fresh scheduler
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(a.log, scheduler.DefaultConfig())

	jobList := []scheduler.Job{
		jobs.NewFullRunJob(orch, a.cfg.Rating.Schedule, true, a.cfg.Collector.Workers, a.log),
		jobs.NewRatingJob(orch, "0 30 23 * * 1-5", a.log),
		jobs.NewExportCleanupJob(a.exporter(), exportRetention, a.log),
	}

	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	return sched, nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		st := stats[name]
		next := "-"
		if t, err := sched.NextRun(name); err == nil && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  - %-16s %-18s next: %s\n", name, st.Schedule, next)
	}
}
