package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"

	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const (
	latestFile  = "latest.json"
	archiveDir  = "archive"
	ratingsDir  = "ratings"
	dateLayout  = "20060102"
	stampLayout = "20060102_150405"
)

// Exporter writes run summaries and rating tables to disk
// ⭐ SSOT: S7 결과 스냅샷 저장은 여기서만
type Exporter struct {
	dir    string
	logger *logger.Logger
	now    func() time.Time
}

// NewExporter creates an exporter rooted at dir
func NewExporter(dir string, log *logger.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		logger: log.WithField("module", "export"),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for file names
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Dir returns the export root
func (e *Exporter) Dir() string {
	return e.dir
}

// RatingRow is the CSV shape of one rating. Unrated values are empty.
type RatingRow struct {
	Ticker            string `csv:"ticker"`
	CompRating        int    `csv:"comp_rating"`
	EPSRating         string `csv:"eps_rating"`
	RSRating          string `csv:"rs_rating"`
	SMRRating         string `csv:"smr_rating"`
	SMRPercentile     string `csv:"smr_percentile"`
	ADRating          string `csv:"ad_rating"`
	IndustryGroupRS   string `csv:"industry_group_rs"`
	PriceVs52WeekHigh string `csv:"price_vs_52w_high"`
	UpdatedAt         string `csv:"updated_at"`
}

// WriteSummary writes the run summary to latest.json and a dated archive
// copy. Returns the archive path.
func (e *Exporter) WriteSummary(summary *contracts.RunSummary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	archive := filepath.Join(e.dir, archiveDir, fmt.Sprintf("summary_%s.json", e.now().Format(dateLayout)))
	if err := writeFile(archive, data); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(e.dir, latestFile), data); err != nil {
		return "", err
	}

	e.logger.WithFields(map[string]interface{}{
		"run_id": summary.RunID,
		"path":   archive,
	}).Info("Run summary saved")

	return archive, nil
}

// LoadLatest reads latest.json. Returns contracts.ErrNotFound before the first run.
func (e *Exporter) LoadLatest() (*contracts.RunSummary, error) {
	data, err := os.ReadFile(filepath.Join(e.dir, latestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("read latest summary: %w", err)
	}

	var summary contracts.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode latest summary: %w", err)
	}
	return &summary, nil
}

// ExportRatings writes ratings as CSV, one file per run. Returns the path.
func (e *Exporter) ExportRatings(ratings []contracts.CompositeRating) (string, error) {
	rows := make([]*RatingRow, 0, len(ratings))
	for i := range ratings {
		rows = append(rows, toRow(&ratings[i]))
	}

	path := filepath.Join(e.dir, ratingsDir, fmt.Sprintf("ratings_%s.csv", e.now().Format(stampLayout)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create ratings file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return "", fmt.Errorf("write ratings csv: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"rows": len(rows),
		"path": path,
	}).Info("Ratings exported")

	return path, nil
}

func toRow(r *contracts.CompositeRating) *RatingRow {
	row := &RatingRow{
		Ticker:     r.Ticker,
		CompRating: r.CompRating,
		SMRRating:  r.SMRRating,
		ADRating:   r.ADRating,
	}
	row.EPSRating = intString(r.EPSRating)
	row.RSRating = intString(r.RSRating)
	row.SMRPercentile = intString(r.SMRPercentile)
	row.IndustryGroupRS = floatString(r.IndustryGroupRS)
	row.PriceVs52WeekHigh = floatString(r.PriceVs52WeekHigh)
	if !r.UpdatedAt.IsZero() {
		row.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Prune removes archived summaries and ratings exports last modified before
// cutoff. latest.json is never removed.
func (e *Exporter) Prune(cutoff time.Time) (int, error) {
	removed := 0
	for _, sub := range []string{archiveDir, ratingsDir} {
		dir := filepath.Join(e.dir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("read %s: %w", sub, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return removed, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
			}
			removed++
		}
	}
	return removed, nil
}
