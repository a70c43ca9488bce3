package contracts

import "time"

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S4 → S7
//   Collect  Universe  Factors  Ranking  Export

// Stage represents a pipeline stage
type Stage string

const (
	// StageUniverse S1: 수집 대상 종목 목록
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageCollect S0: 가격/재무/프로필 병렬 수집
	// 위치: internal/s0_data/collector/
	StageCollect Stage = "S0_COLLECT"

	// StageFactors S2: RS/EPS/SMR/업종 RS 계산
	// 위치: internal/s2_signals/
	StageFactors Stage = "S2_FACTORS"

	// StageRanking S4: 백분위 랭킹 및 종합 점수
	// 위치: internal/selection/
	StageRanking Stage = "S4_RANKING"

	// StageExport S7: 결과 스냅샷 저장
	// 위치: internal/audit/
	StageExport Stage = "S7_EXPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageCollect:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageFactors:
		return "S2"
	case StageRanking:
		return "S4"
	case StageExport:
		return "S7"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all pipeline stages in execution order
func AllStages() []Stage {
	return []Stage{StageUniverse, StageCollect, StageFactors, StageRanking, StageExport}
}

// FailedTicker records why a ticker could not be collected
type FailedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// CollectionResult is the outcome of one collector pass.
// Success + Failure always equals the number of input tickers.
type CollectionResult struct {
	Success   int            `json:"success"`
	Failure   int            `json:"failure"`
	Collected []string       `json:"collected"` // tickers with persisted bars, sorted
	Failed    []FailedTicker `json:"failed,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// Total returns the number of tickers processed
func (r *CollectionResult) Total() int {
	return r.Success + r.Failure
}

// FactorResult counts what the factor stage wrote
type FactorResult struct {
	Tickers    int `json:"tickers"`
	RS         int `json:"rs"`
	EPS        int `json:"eps"`
	SMR        int `json:"smr"`
	Industries int `json:"industries"`
	IndustryRS int `json:"industry_rs"`
	Errors     int `json:"errors"`
}

// RankingResult counts what the ranking pass wrote
type RankingResult struct {
	Rated    int `json:"rated"`
	RSRated  int `json:"rs_rated"`
	EPSRated int `json:"eps_rated"`
	SMRRated int `json:"smr_rated"`
	Pruned   int `json:"pruned"`
	HighsSet int `json:"highs_set"`
}

// StageResult is the timing and outcome of one stage
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is returned by a full run and written to the summary snapshot
type RunSummary struct {
	RunID       string               `json:"run_id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	FullDataset bool                 `json:"full_dataset"`
	Workers     int                  `json:"workers"`
	Universe    int                  `json:"universe"`
	Collection  *CollectionResult    `json:"collection,omitempty"`
	Benchmarks  *CollectionResult    `json:"benchmarks,omitempty"`
	Sectors     int                  `json:"sector_rows"`
	Factors     *FactorResult        `json:"factors,omitempty"`
	Ranking     *RankingResult       `json:"ranking,omitempty"`
	Stats       *DatabaseStats       `json:"stats,omitempty"`
	Quality     *DataQualitySnapshot `json:"quality,omitempty"`
	Ratings     *RatingDistribution  `json:"ratings,omitempty"`
	Stages      []StageResult        `json:"stages"`
	WeightsHash string               `json:"weights_hash"`
	Success     bool                 `json:"success"`
	Error       string               `json:"error,omitempty"`
}
