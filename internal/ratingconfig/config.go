package ratingconfig

// Config는 종합 점수 계산에 쓰이는 전체 설정
// ⭐ SSOT: 랭킹 가중치/임계값은 여기서만
type Config struct {
	Meta      Meta             `yaml:"meta" json:"meta"`
	Composite CompositeWeights `yaml:"composite" json:"composite"`
	EPS       EPSBlend         `yaml:"eps" json:"eps"`
	SMR       SMRBlend         `yaml:"smr" json:"smr"`
	AD        ADGrades         `yaml:"ad" json:"ad"`
	High52W   High52W          `yaml:"high_52w" json:"high_52w"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// CompositeWeights 종합 점수 가중치 (합계 1.0)
type CompositeWeights struct {
	EPS      float64 `yaml:"eps" json:"eps"`
	RS       float64 `yaml:"rs" json:"rs"`
	SMR      float64 `yaml:"smr" json:"smr"`
	AD       float64 `yaml:"ad" json:"ad"`
	Industry float64 `yaml:"industry" json:"industry"`
}

// EPSBlend EPS 순위용 혼합 지표
type EPSBlend struct {
	LastQuarter float64 `yaml:"last_quarter" json:"last_quarter"`
	PrevQuarter float64 `yaml:"prev_quarter" json:"prev_quarter"`
	Annual      float64 `yaml:"annual" json:"annual"`
	Stability   float64 `yaml:"stability" json:"stability"`
	GrowthCap   float64 `yaml:"growth_cap" json:"growth_cap"` // 분기 성장률 상한 (%)
	AnnualCap   float64 `yaml:"annual_cap" json:"annual_cap"` // 연간 CAGR 상한 (%)
}

// SMRBlend 매출/마진/ROE 도메인 가중치 (합계 1.0)
type SMRBlend struct {
	Sales  float64 `yaml:"sales" json:"sales"`
	Margin float64 `yaml:"margin" json:"margin"`
	ROE    float64 `yaml:"roe" json:"roe"`

	// Letter thresholds on the SMR percentile, A > B > C > D
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// ADGrades 누적/분산 등급 (RS 랭크 기반 프록시)
type ADGrades struct {
	Thresholds   Thresholds `yaml:"thresholds" json:"thresholds"`
	Scores       Scores     `yaml:"scores" json:"scores"`
	DefaultScore float64    `yaml:"default_score" json:"default_score"` // RS 미산출 시
}

// Thresholds are inclusive lower bounds for letters A through D; anything lower is E
type Thresholds struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
}

// Scores maps each letter to the value used in the composite
type Scores struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
	E float64 `yaml:"e" json:"e"`
}

// High52W 52주 고가 윈도우
type High52W struct {
	WindowDays int `yaml:"window_days" json:"window_days"`
}

// Letter returns the grade for v, or E below every threshold
func (t Thresholds) Letter(v float64) string {
	switch {
	case v >= t.A:
		return "A"
	case v >= t.B:
		return "B"
	case v >= t.C:
		return "C"
	case v >= t.D:
		return "D"
	default:
		return "E"
	}
}

// Score returns the configured value for letter; unknown letters score 0
func (s Scores) Score(letter string) float64 {
	switch letter {
	case "A":
		return s.A
	case "B":
		return s.B
	case "C":
		return s.C
	case "D":
		return s.D
	case "E":
		return s.E
	}
	return 0
}

// Default returns the built-in rating configuration
func Default() *Config {
	return &Config{
		Meta: Meta{ConfigID: "composite_default", Version: "1"},
		Composite: CompositeWeights{
			EPS:      0.3,
			RS:       0.3,
			SMR:      0.2,
			AD:       0.1,
			Industry: 0.1,
		},
		EPS: EPSBlend{
			LastQuarter: 0.4,
			PrevQuarter: 0.2,
			Annual:      0.2,
			Stability:   0.2,
			GrowthCap:   500,
			AnnualCap:   100,
		},
		SMR: SMRBlend{
			Sales:      0.4,
			Margin:     0.3,
			ROE:        0.3,
			Thresholds: Thresholds{A: 80, B: 60, C: 40, D: 20},
		},
		AD: ADGrades{
			Thresholds:   Thresholds{A: 90, B: 70, C: 50, D: 30},
			Scores:       Scores{A: 95, B: 80, C: 60, D: 40, E: 20},
			DefaultScore: 60,
		},
		High52W: High52W{WindowDays: 365},
	}
}
