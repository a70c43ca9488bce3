package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "저장된 데이터로 레이팅만 재계산",
	Long: `수집 없이 DB에 저장된 가격/재무 데이터로
팩터 계산(S2)과 랭킹(S4), 내보내기(S7)만 실행합니다.

가중치 파일(RATING_WEIGHTS_FILE)을 바꾼 뒤 결과를 확인할 때 사용합니다.

Example:
  go run ./cmd/ratings rate
  RATING_WEIGHTS_FILE=config/ratings/default.yaml go run ./cmd/ratings rate`,
	RunE: runRate,
}

func init() {
	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
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

	weights := a.cfg.Rating.WeightsFile
	if weights == "" {
		weights = "(default)"
	}
	PrintJobHeader("Rating", map[string]string{
		"Weights": weights,
		"Started": time.Now().Format("2006-01-02 15:04:05"),
	}, "Weights", "Started")

	summary, err := orch.Rate(ctx)
	if summary != nil {
		PrintRunSummary(summary)
	}
	return err
}
