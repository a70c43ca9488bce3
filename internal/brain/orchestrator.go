package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/aegis-ratings/internal/audit"
	"github.com/wonny/aegis-ratings/internal/contracts"
	"github.com/wonny/aegis-ratings/internal/s0_data/collector"
	"github.com/wonny/aegis-ratings/internal/s0_data/quality"
	"github.com/wonny/aegis-ratings/internal/s1_universe"
	"github.com/wonny/aegis-ratings/internal/s2_signals"
	"github.com/wonny/aegis-ratings/internal/selection"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

// ErrRunInProgress is returned when a run starts while another one holds the pipeline
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Orchestrator coordinates the collection and rating pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
//	S1 Universe → S0 Collect → S2 Factors → S4 Ranking → S7 Export
type Orchestrator struct {
	// Stage components
	universeBuilder *s1_universe.Builder
	collector       *collector.Collector
	factorBuilder   *s2_signals.Builder
	ranker          *selection.Ranker
	qualityGate     *quality.QualityGate
	exporter        *audit.Exporter

	// 통계/결과 조회
	ratings contracts.RatingReader

	config Config
	logger *logger.Logger
	now    func() time.Time

	// 수집과 레이팅은 동시에 돌지 않음 (랭킹은 수집 완료 후에만)
	runMu sync.Mutex
}

// Config holds run-wide settings
type Config struct {
	Collector   collector.Config
	Benchmarks  []string
	WeightsHash string
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	universeBuilder *s1_universe.Builder,
	dataCollector *collector.Collector,
	factorBuilder *s2_signals.Builder,
	ranker *selection.Ranker,
	qualityGate *quality.QualityGate,
	exporter *audit.Exporter,
	ratings contracts.RatingReader,
	config Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		universeBuilder: universeBuilder,
		collector:       dataCollector,
		factorBuilder:   factorBuilder,
		ranker:          ranker,
		qualityGate:     qualityGate,
		exporter:        exporter,
		ratings:         ratings,
		config:          config,
		logger:          log.WithField("module", "orchestrator"),
		now:             time.Now,
	}
}

// WithClock overrides the clock used for run ids and timestamps
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RunFullCollection runs every stage in order: universe, collection,
// factors, ranking, export. maxWorkers > 0 overrides the collector pool size.
// The summary is returned even when a stage fails. A run never overlaps
// another RunFullCollection or Rate on the same orchestrator.
func (o *Orchestrator) RunFullCollection(ctx context.Context, useFullDataset bool, maxWorkers int) (*contracts.RunSummary, error) {
	if !o.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.runMu.Unlock()

	cfg := o.config.Collector
	if maxWorkers > 0 {
		cfg.Workers = maxWorkers
	}

	summary := o.newSummary(useFullDataset, cfg.Workers)
	o.logger.WithFields(map[string]interface{}{
		"run_id":       summary.RunID,
		"full_dataset": useFullDataset,
		"workers":      cfg.Workers,
		"batch_size":   cfg.BatchSize,
	}).Info("Starting full collection run")

	// S1: Universe
	var universe *s1_universe.Universe
	err := o.stage(summary, contracts.StageUniverse, func() error {
		var err error
		universe, err = o.universeBuilder.Build(ctx, useFullDataset)
		if err != nil {
			return err
		}
		summary.Universe = len(universe.Tickers)
		return nil
	})
	if err != nil {
		return o.finish(ctx, summary, err)
	}

	// S0: Collect
	err = o.stage(summary, contracts.StageCollect, func() error {
		return o.runCollect(ctx, summary, universe, cfg)
	})
	if err != nil {
		return o.finish(ctx, summary, err)
	}

	return o.rate(ctx, summary)
}

// Rate recomputes factors and ratings from stored data without collecting
func (o *Orchestrator) Rate(ctx context.Context) (*contracts.RunSummary, error) {
	if !o.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.runMu.Unlock()

	summary := o.newSummary(false, 0)
	o.logger.WithField("run_id", summary.RunID).Info("Starting rating run")
	return o.rate(ctx, summary)
}

func (o *Orchestrator) rate(ctx context.Context, summary *contracts.RunSummary) (*contracts.RunSummary, error) {
	// S2: Factors
	err := o.stage(summary, contracts.StageFactors, func() error {
		res, err := o.factorBuilder.Run(ctx)
		if err != nil {
			return err
		}
		summary.Factors = res
		return nil
	})
	if err != nil {
		return o.finish(ctx, summary, err)
	}

	// S4: Ranking (수집/팩터 완료 후에만 시작)
	err = o.stage(summary, contracts.StageRanking, func() error {
		res, err := o.ranker.Run(ctx)
		if err != nil {
			return err
		}
		summary.Ranking = res
		return nil
	})
	if err != nil {
		return o.finish(ctx, summary, err)
	}

	return o.finish(ctx, summary, nil)
}

// runCollect collects benchmarks and the universe, then records what was
// collected as the tracked universe and stores sector performance
func (o *Orchestrator) runCollect(ctx context.Context, summary *contracts.RunSummary, universe *s1_universe.Universe, cfg collector.Config) error {
	if len(o.config.Benchmarks) > 0 {
		if err := o.universeBuilder.TrackBenchmarks(ctx, o.config.Benchmarks); err != nil {
			o.logger.WithError(err).Warn("Failed to track benchmarks")
		}
		summary.Benchmarks = o.collector.CollectBenchmarks(ctx, o.config.Benchmarks, cfg)
	}

	result := o.collector.Collect(ctx, universe.Symbols(), cfg)
	summary.Collection = result

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("collection cancelled: %w", err)
	}

	if err := o.universeBuilder.Track(ctx, universe, result.Collected); err != nil {
		return err
	}

	rows, err := o.collector.CollectSectorPerformance(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Sector performance not stored")
	}
	summary.Sectors = rows

	return nil
}

// stage runs fn and records its timing and outcome
func (o *Orchestrator) stage(summary *contracts.RunSummary, stage contracts.Stage, fn func() error) error {
	o.logger.WithField("stage", stage.ShortName()).Infof("Running %s", stage)

	start := o.now()
	err := fn()
	res := contracts.StageResult{
		Stage:    stage,
		Success:  err == nil,
		Duration: o.now().Sub(start),
	}
	if err != nil {
		res.Error = err.Error()
		err = fmt.Errorf("%s failed: %w", stage.ShortName(), err)
	}
	summary.Stages = append(summary.Stages, res)

	log := o.logger.WithFields(map[string]interface{}{
		"stage":    stage.ShortName(),
		"duration": res.Duration.Seconds(),
	})
	if err != nil {
		log.WithError(err).Error("Stage failed")
	} else {
		log.Info("Stage completed")
	}
	return err
}

// finish gathers stats and quality, exports, and closes the summary.
// Export problems are logged; only runErr is returned.
func (o *Orchestrator) finish(ctx context.Context, summary *contracts.RunSummary, runErr error) (*contracts.RunSummary, error) {
	if runErr != nil {
		summary.Error = runErr.Error()
	}

	stats, err := o.ratings.GetDatabaseStats(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Failed to read database stats")
	} else {
		summary.Stats = stats
		summary.Quality = o.qualityGate.Check(stats, o.now())
		if !summary.Quality.Passed {
			o.logger.WithFields(map[string]interface{}{
				"quality_score": summary.Quality.QualityScore,
				"failures":      summary.Quality.Failures,
			}).Warn("Data quality below threshold")
		}
	}

	summary.Success = runErr == nil

	// S7: Export
	_ = o.stage(summary, contracts.StageExport, func() error {
		if runErr == nil {
			ratings, err := o.ratings.GetAllRatings(ctx)
			if err != nil {
				return fmt.Errorf("get ratings: %w", err)
			}
			summary.Ratings = audit.Summarize(ratings)
			if _, err := o.exporter.ExportRatings(ratings); err != nil {
				return err
			}
		}
		summary.FinishedAt = o.now()
		_, err := o.exporter.WriteSummary(summary)
		return err
	})

	o.logger.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"success":  summary.Success,
		"duration": summary.FinishedAt.Sub(summary.StartedAt).Seconds(),
		"stages":   len(summary.Stages),
	}).Info("Run finished")

	return summary, runErr
}

func (o *Orchestrator) newSummary(fullDataset bool, workers int) *contracts.RunSummary {
	started := o.now()
	return &contracts.RunSummary{
		RunID:       fmt.Sprintf("run_%s", started.Format("20060102_150405")),
		StartedAt:   started,
		FullDataset: fullDataset,
		Workers:     workers,
		Stages:      make([]contracts.StageResult, 0, len(contracts.AllStages())),
		WeightsHash: o.config.WeightsHash,
	}
}
