package ratingconfig

import (
	"errors"
	"fmt"
	"math"
)

const weightEpsilon = 1e-6

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Composite ===
	c := cfg.Composite
	if err := validateWeights([]float64{c.EPS, c.RS, c.SMR, c.AD, c.Industry}); err != nil {
		return ValidationError{"composite", err.Error()}
	}

	// === EPS ===
	e := cfg.EPS
	if err := validateWeights([]float64{e.LastQuarter, e.PrevQuarter, e.Annual, e.Stability}); err != nil {
		return ValidationError{"eps", err.Error()}
	}
	if e.GrowthCap <= 0 {
		return ValidationError{"eps.growth_cap", "must be > 0"}
	}
	if e.AnnualCap <= 0 {
		return ValidationError{"eps.annual_cap", "must be > 0"}
	}

	// === SMR ===
	s := cfg.SMR
	if err := validateWeights([]float64{s.Sales, s.Margin, s.ROE}); err != nil {
		return ValidationError{"smr", err.Error()}
	}
	if err := validateThresholds(s.Thresholds); err != nil {
		return ValidationError{"smr.thresholds", err.Error()}
	}

	// === A/D ===
	if err := validateThresholds(cfg.AD.Thresholds); err != nil {
		return ValidationError{"ad.thresholds", err.Error()}
	}
	sc := cfg.AD.Scores
	for _, v := range []float64{sc.A, sc.B, sc.C, sc.D, sc.E, cfg.AD.DefaultScore} {
		if v < 0 || v > 100 {
			return ValidationError{"ad.scores", "must be in [0, 100]"}
		}
	}

	// === 52W ===
	if cfg.High52W.WindowDays <= 0 {
		return ValidationError{"high_52w.window_days", "must be > 0"}
	}

	return nil
}

// validateWeights requires non-negative weights summing to 1
func validateWeights(weights []float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return errors.New("weights must be >= 0")
		}
		sum += w
	}
	if math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("must sum to 1.00, got %.4f", sum)
	}
	return nil
}

// validateThresholds requires 100 >= A > B > C > D >= 0
func validateThresholds(t Thresholds) error {
	if t.A > 100 || t.D < 0 {
		return errors.New("must be within [0, 100]")
	}
	if !(t.A > t.B && t.B > t.C && t.C > t.D) {
		return errors.New("must be strictly descending a > b > c > d")
	}
	return nil
}
