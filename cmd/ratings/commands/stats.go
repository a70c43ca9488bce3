package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "DB 상태 및 데이터 품질 조회",
	Long: `PostgreSQL 연결 상태와 테이블별 행 수,
데이터 품질 점수를 출력합니다.

Example:
  go run ./cmd/ratings stats`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("=== Aegis Ratings Status ===")
	fmt.Println()

	// 1. Database health
	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Database: %v", err))
		return err
	}
	PrintSuccess(fmt.Sprintf("Database: healthy (%s)", health.ResponseTime))
	fmt.Printf("   Connections: %d total, %d idle, %d acquired (max %d)\n",
		health.Stats.TotalConns, health.Stats.IdleConns, health.Stats.AcquiredConns, health.Stats.MaxConns)

	if a.redis.Enabled() {
		if latency, err := a.redis.Ping(ctx); err != nil {
			PrintError(fmt.Sprintf("Redis: %v", err))
		} else {
			PrintSuccess(fmt.Sprintf("Redis: %s (%s)", a.redis.Addr(), latency))
		}
	} else {
		PrintInfo("Redis: disabled (in-memory limiter, no profile cache)")
	}

	// 2. Row counts
	stats, err := a.repo.GetDatabaseStats(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Stats: %v", err))
		return err
	}

	fmt.Println()
	PrintSeparator()
	fmt.Printf("  Tickers        : %d (%d with prices)\n", stats.Tickers, stats.TickersWithPrice)
	fmt.Printf("  Price bars     : %d\n", stats.PriceBars)
	fmt.Printf("  Statements     : %d\n", stats.Statements)
	fmt.Printf("  Profiles       : %d\n", stats.Profiles)
	for _, kind := range []string{"rs", "eps", "smr", "industry"} {
		fmt.Printf("  %-15s: %d\n", kind, stats.Components[kind])
	}
	fmt.Printf("  Ratings        : %d\n", stats.Ratings)
	if stats.LatestPriceDate != nil {
		fmt.Printf("  Latest price   : %s\n", stats.LatestPriceDate.Format("2006-01-02"))
	}
	PrintSeparator()

	// 3. Quality
	snapshot := a.qualityGate().Check(stats, time.Now())
	if snapshot.Passed {
		PrintSuccess(fmt.Sprintf("Quality: %.1f", snapshot.QualityScore))
	} else {
		PrintWarning(fmt.Sprintf("Quality: %.1f (failed)", snapshot.QualityScore))
		for _, f := range snapshot.Failures {
			fmt.Printf("   - %s\n", f)
		}
	}

	return nil
}
