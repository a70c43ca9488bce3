package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-ratings/internal/api"
	"github.com/wonny/aegis-ratings/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "레이팅 조회 API 서버 시작",
	Long: `저장된 레이팅을 조회하는 읽기 전용 HTTP API 서버를 시작합니다.

Endpoints:
  GET /health
  GET /api/ratings?min_comp=80&min_rs=80&smr=B&limit=100
  GET /api/ratings/{ticker}
  GET /api/stats
  GET /api/runs/latest

Example:
  go run ./cmd/ratings api
  PORT=9000 go run ./cmd/ratings api`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(
		handlers.NewRatingsHandler(a.repo, a.log),
		handlers.NewDataHandler(a.repo, a.exporter(), a.qualityGate(), a.log),
		a.log,
	)

	return api.New(a.cfg, a.log, router).Run(ctx)
}
