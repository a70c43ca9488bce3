package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-ratings/internal/audit"
	"github.com/wonny/aegis-ratings/internal/selection"
)

var (
	exportMinComp int
	exportMinRS   int
	exportSMR     string
	exportOffHigh float64
	exportTop     int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "현재 레이팅을 CSV로 내보내기",
	Long: `DB에 저장된 레이팅을 종합 점수 순으로 CSV 파일에 저장합니다.
필터를 주면 스크리너 조건을 통과한 종목만 내보냅니다.

Output:
  $EXPORT_DIR/ratings/ratings_YYYYMMDD_HHMMSS.csv

Example:
  go run ./cmd/ratings export
  go run ./cmd/ratings export --min-comp 80 --min-rs 80 --smr B --top 50`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportMinComp, "min-comp", 0, "minimum composite rating")
	exportCmd.Flags().IntVar(&exportMinRS, "min-rs", 0, "minimum RS rating")
	exportCmd.Flags().StringVar(&exportSMR, "smr", "", "worst SMR letter to keep (A-E)")
	exportCmd.Flags().Float64Var(&exportOffHigh, "off-high", 0, "max percent below the 52-week high (0 = at the high)")
	exportCmd.Flags().IntVar(&exportTop, "top", 0, "print the top N rows")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ratings, err := a.repo.GetAllRatings(ctx)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	if len(ratings) == 0 {
		PrintWarning("No ratings stored yet. Run `ratings run` first.")
		return nil
	}

	screenCfg := selection.ScreenerConfig{
		MinComp:      exportMinComp,
		MinRS:        exportMinRS,
		MaxSMRLetter: strings.ToUpper(exportSMR),
	}
	if cmd.Flags().Changed("off-high") {
		screenCfg.MaxOffHigh = &exportOffHigh
	}
	screener := selection.NewScreener(screenCfg, a.log)
	selected := screener.Screen(ratings)

	path, err := a.exporter().ExportRatings(selected)
	if err != nil {
		PrintError(fmt.Sprintf("Export failed: %v", err))
		return err
	}

	dist := audit.Summarize(selected)
	PrintSuccess(fmt.Sprintf("Exported %d of %d ratings to %s", len(selected), len(ratings), path))
	fmt.Printf("   Mean comp %.1f, median %.1f, leaders %d\n", dist.MeanComp, dist.MedianComp, dist.Leaders)

	if exportTop > 0 {
		top := selected
		if len(top) > exportTop {
			top = top[:exportTop]
		}
		fmt.Println()
		PrintRatings(top)
	}

	return nil
}
