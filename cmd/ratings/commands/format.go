package commands

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintJobHeader prints a formatted job header
func PrintJobHeader(title string, fields map[string]string, order ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, k := range order {
		fmt.Printf("  %-10s: %s\n", k, fields[k])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintRunSummary prints stage timings and counts of a finished run
func PrintRunSummary(s *contracts.RunSummary) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Run %s\n", s.RunID)
	PrintSeparator()
	for _, st := range s.Stages {
		mark := "✅"
		if !st.Success {
			mark = "❌"
		}
		fmt.Printf("  %s %-10s %8s", mark, st.Stage, st.Duration.Round(time.Millisecond))
		if st.Error != "" {
			fmt.Printf("  %s", st.Error)
		}
		fmt.Println()
	}
	PrintSeparator()

	if s.Universe > 0 {
		fmt.Printf("  Universe  : %d tickers\n", s.Universe)
	}
	if c := s.Collection; c != nil {
		fmt.Printf("  Collected : %d ok / %d failed (%s)\n", c.Success, c.Failure, c.Duration.Round(time.Second))
	}
	if f := s.Factors; f != nil {
		fmt.Printf("  Factors   : RS %d, EPS %d, SMR %d, industries %d\n", f.RS, f.EPS, f.SMR, f.IndustryRS)
	}
	if r := s.Ranking; r != nil {
		fmt.Printf("  Ranking   : %d rated, %d pruned\n", r.Rated, r.Pruned)
	}
	if q := s.Quality; q != nil {
		fmt.Printf("  Quality   : %.1f (passed=%v)\n", q.QualityScore, q.Passed)
	}
	if d := s.Ratings; d != nil {
		fmt.Printf("  Comp      : mean %.1f, median %.1f, leaders %d\n", d.MeanComp, d.MedianComp, d.Leaders)
	}
	PrintSeparator()

	elapsed := s.FinishedAt.Sub(s.StartedAt).Seconds()
	if s.Success {
		PrintSuccess(fmt.Sprintf("Run completed in %.2fs", elapsed))
	} else {
		PrintError(fmt.Sprintf("Run failed after %.2fs: %s", elapsed, s.Error))
	}
}

// PrintRatings prints a ratings table
func PrintRatings(ratings []contracts.CompositeRating) {
	fmt.Printf("  %-8s %4s %4s %4s %3s %3s %8s\n", "TICKER", "COMP", "RS", "EPS", "SMR", "A/D", "OFF HIGH")
	PrintSeparator()
	for _, r := range ratings {
		fmt.Printf("  %-8s %4d %4s %4s %3s %3s %8s\n",
			r.Ticker, r.CompRating, intOrDash(r.RSRating), intOrDash(r.EPSRating),
			orDash(r.SMRRating), orDash(r.ADRating), pctOrDash(r.PriceVs52WeekHigh))
	}
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func pctOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
