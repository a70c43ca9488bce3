package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	runFull    bool
	runWorkers int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행 (수집 + 레이팅)",
	Long: `Universe 구성부터 데이터 수집, 팩터 계산, 랭킹, 내보내기까지
전체 파이프라인을 한 번 실행합니다.

Stages:
  S1 Universe  - 상장 종목 목록 조회 및 필터링
  S0 Collect   - 가격/재무/프로필 수집 (배치 + 워커)
  S2 Factors   - RS, EPS, SMR, 업종 RS 계산
  S4 Ranking   - 백분위 레이팅 및 종합 점수
  S7 Export    - CSV + 실행 요약 저장

Example:
  go run ./cmd/ratings run                  # 샘플 모드 (SAMPLE_SIZE 종목)
  go run ./cmd/ratings run --full --workers 5`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFull, "full", false, "collect every listed ticker instead of a sample")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "collector workers (default COLLECTOR_WORKERS)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := runWorkers
	if workers <= 0 {
		workers = a.cfg.Collector.Workers
	}

	mode := "sample"
	if runFull {
		mode = "full"
	}
	PrintJobHeader("Full Collection", map[string]string{
		"Mode":     mode,
		"Workers":  fmt.Sprintf("%d", workers),
		"Universe": a.cfg.Universe.Source,
		"Started":  time.Now().Format("2006-01-02 15:04:05"),
	}, "Mode", "Workers", "Universe", "Started")

	summary, err := orch.RunFullCollection(ctx, runFull, workers)
	if summary != nil {
		PrintRunSummary(summary)
	}
	return err
}
