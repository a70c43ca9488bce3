package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

func (s *Store) InsertCalculatedRS(ctx context.Context, rs contracts.RSComponents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rs[rs.Ticker] = rs
	return nil
}

func (s *Store) InsertCalculatedEPS(ctx context.Context, e contracts.EPSComponents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eps[e.Ticker] = e
	return nil
}

func (s *Store) InsertCalculatedSMR(ctx context.Context, smr contracts.SMRComponents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.smr[smr.Ticker] = smr
	return nil
}

func (s *Store) DeleteCalculated(ctx context.Context, kind contracts.ComponentKind, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case contracts.ComponentRS:
		delete(s.rs, ticker)
	case contracts.ComponentEPS:
		delete(s.eps, ticker)
	case contracts.ComponentSMR:
		delete(s.smr, ticker)
	default:
		return fmt.Errorf("unknown component kind %q", kind)
	}
	return nil
}

func (s *Store) ReplaceIndustryGroupRS(ctx context.Context, rows []contracts.IndustryGroupRS) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.industry = make(map[string]contracts.IndustryGroupRS, len(rows))
	for _, g := range rows {
		s.industry[g.Ticker] = g
	}
	return nil
}

func (s *Store) GetAllRSValues(ctx context.Context) (map[string]contracts.RSComponents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.rs), nil
}

func (s *Store) GetAllEPSComponents(ctx context.Context) (map[string]contracts.EPSComponents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.eps), nil
}

func (s *Store) GetAllSMRComponents(ctx context.Context) (map[string]contracts.SMRComponents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.smr), nil
}

func (s *Store) GetAllIndustryGroupRS(ctx context.Context) (map[string]contracts.IndustryGroupRS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.industry), nil
}

// ============================================================================
// Ratings
// ============================================================================

// InsertRatings upserts ratings, keeping any stored 52-week-high deviation
func (s *Store) InsertRatings(ctx context.Context, ratings []contracts.CompositeRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, r := range ratings {
		if prev, ok := s.ratings[r.Ticker]; ok {
			r.PriceVs52WeekHigh = prev.PriceVs52WeekHigh
		} else {
			r.PriceVs52WeekHigh = nil
		}
		r.UpdatedAt = now
		s.ratings[r.Ticker] = r
	}
	return nil
}

func (s *Store) PruneRatings(ctx context.Context, keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keepSet := make(map[string]struct{}, len(keep))
	for _, t := range keep {
		keepSet[t] = struct{}{}
	}
	pruned := 0
	for t := range s.ratings {
		if _, ok := keepSet[t]; !ok {
			delete(s.ratings, t)
			pruned++
		}
	}
	return pruned, nil
}

func (s *Store) GetPriceHighs(ctx context.Context, since time.Time) (map[string]contracts.PriceHigh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.PriceHigh)
	for ticker, bars := range s.prices {
		var (
			high      float64
			inWindow  bool
			latest    time.Time
			lastClose float64
		)
		for d, b := range bars {
			if !d.Before(dateKey(since)) {
				if !inWindow || b.High > high {
					high = b.High
				}
				inWindow = true
			}
			if d.After(latest) {
				latest = d
				lastClose = b.Close
			}
		}
		if inWindow {
			out[ticker] = contracts.PriceHigh{High: high, LatestClose: lastClose}
		}
	}
	return out, nil
}

func (s *Store) UpdatePriceVs52WeekHigh(ctx context.Context, values map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t, v := range values {
		r, ok := s.ratings[t]
		if !ok {
			continue
		}
		r.PriceVs52WeekHigh = contracts.Float(v)
		s.ratings[t] = r
	}
	return nil
}

func (s *Store) GetAllRatings(ctx context.Context) ([]contracts.CompositeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contracts.CompositeRating, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompRating != out[j].CompRating {
			return out[i].CompRating > out[j].CompRating
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out, nil
}

func (s *Store) GetRating(ctx context.Context, ticker string) (*contracts.CompositeRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ratings[ticker]
	if !ok {
		return nil, fmt.Errorf("get rating for %s: %w", ticker, contracts.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) GetDatabaseStats(ctx context.Context) (*contracts.DatabaseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &contracts.DatabaseStats{
		Profiles: len(s.profiles),
		Ratings:  len(s.ratings),
		Components: map[string]int{
			"rs":       len(s.rs),
			"eps":      len(s.eps),
			"smr":      len(s.smr),
			"industry": len(s.industry),
		},
	}
	for sym, t := range s.tickers {
		if t.IsBenchmark {
			continue
		}
		stats.Tickers++
		if len(s.prices[sym]) > 0 {
			stats.TickersWithPrice++
		}
	}
	var latest time.Time
	for _, bars := range s.prices {
		stats.PriceBars += len(bars)
		for d := range bars {
			if d.After(latest) {
				latest = d
			}
		}
	}
	if !latest.IsZero() {
		stats.LatestPriceDate = &latest
	}
	for _, m := range s.statements {
		stats.Statements += len(m)
	}
	return stats, nil
}

func copyMap[V any](src map[string]V) map[string]V {
	out := make(map[string]V, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
