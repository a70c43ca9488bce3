package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Aegis Ratings - 미국 주식 종합 레이팅 엔진",
	Long: `Aegis Ratings Unified CLI

가격/재무 데이터를 수집하고 RS, EPS, SMR, A/D, 업종 RS를
백분위로 환산해 종목별 종합 점수(1~99)를 계산합니다.

Pipeline:
  S1 Universe → S0 Collect → S2 Factors → S4 Ranking → S7 Export

Usage:
  go run ./cmd/ratings [command]

Examples:
  go run ./cmd/ratings migrate
  go run ./cmd/ratings run --full --workers 5
  go run ./cmd/ratings rate
  go run ./cmd/ratings stats
  go run ./cmd/ratings api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
