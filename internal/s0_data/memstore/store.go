// Package memstore is an in-memory contracts.Store used by tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-ratings/internal/contracts"
)

type statementKey struct {
	period contracts.PeriodKind
	date   time.Time
}

// Store keeps every table in maps guarded by one RWMutex
type Store struct {
	mu sync.RWMutex

	tickers    map[string]contracts.Ticker
	prices     map[string]map[time.Time]contracts.PriceBar
	statements map[string]map[statementKey]contracts.IncomeStatement
	balances   map[string]map[time.Time]contracts.BalanceSheet
	profiles   map[string]contracts.CompanyProfile
	sectors    map[string]contracts.SectorPerformance

	rs       map[string]contracts.RSComponents
	eps      map[string]contracts.EPSComponents
	smr      map[string]contracts.SMRComponents
	industry map[string]contracts.IndustryGroupRS
	ratings  map[string]contracts.CompositeRating

	openSessions int
	maxSessions  int
	now          func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		tickers:    make(map[string]contracts.Ticker),
		prices:     make(map[string]map[time.Time]contracts.PriceBar),
		statements: make(map[string]map[statementKey]contracts.IncomeStatement),
		balances:   make(map[string]map[time.Time]contracts.BalanceSheet),
		profiles:   make(map[string]contracts.CompanyProfile),
		sectors:    make(map[string]contracts.SectorPerformance),
		rs:         make(map[string]contracts.RSComponents),
		eps:        make(map[string]contracts.EPSComponents),
		smr:        make(map[string]contracts.SMRComponents),
		industry:   make(map[string]contracts.IndustryGroupRS),
		ratings:    make(map[string]contracts.CompositeRating),
		now:        time.Now,
	}
}

// WithClock sets the clock used for UpdatedAt stamps
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// MaxConcurrentSessions reports the peak number of sessions open at once
func (s *Store) MaxConcurrentSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSessions
}

// OpenSessions reports sessions not yet closed
func (s *Store) OpenSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openSessions
}

// ============================================================================
// Universe
// ============================================================================

func (s *Store) GetAllTickers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.tickers))
	for sym, t := range s.tickers {
		if !t.IsBenchmark {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) InsertTickersBulk(ctx context.Context, tickers []contracts.Ticker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tickers {
		if t.Symbol == "" {
			return fmt.Errorf("insert tickers: empty symbol")
		}
		if prev, ok := s.tickers[t.Symbol]; ok {
			if t.Exchange == "" {
				t.Exchange = prev.Exchange
			}
			if t.Name == "" {
				t.Name = prev.Name
			}
		}
		s.tickers[t.Symbol] = t
	}
	return nil
}

// ============================================================================
// Raw data
// ============================================================================

func (s *Store) InsertPriceHistory(ctx context.Context, ticker string, bars []contracts.PriceBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.prices[ticker]
	if !ok {
		m = make(map[time.Time]contracts.PriceBar)
		s.prices[ticker] = m
	}
	for _, b := range bars {
		m[dateKey(b.Date)] = b
	}
	return nil
}

func (s *Store) GetPriceHistory(ctx context.Context, ticker string, days int) ([]contracts.PriceBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.prices[ticker]
	out := make([]contracts.PriceBar, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if days > 0 && len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

func (s *Store) InsertIncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, stmts []contracts.IncomeStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.statements[ticker]
	if !ok {
		m = make(map[statementKey]contracts.IncomeStatement)
		s.statements[ticker] = m
	}
	for _, st := range stmts {
		st.Period = period
		m[statementKey{period: period, date: dateKey(st.FiscalDate)}] = st
	}
	return nil
}

func (s *Store) GetIncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, limit int) ([]contracts.IncomeStatement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.IncomeStatement
	for k, st := range s.statements[ticker] {
		if k.period == period {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiscalDate.After(out[j].FiscalDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertBalanceSheetAnnual(ctx context.Context, ticker string, sheets []contracts.BalanceSheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.balances[ticker]
	if !ok {
		m = make(map[time.Time]contracts.BalanceSheet)
		s.balances[ticker] = m
	}
	for _, b := range sheets {
		m[dateKey(b.FiscalDate)] = b
	}
	return nil
}

func (s *Store) GetBalanceSheetAnnual(ctx context.Context, ticker string, limit int) ([]contracts.BalanceSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.BalanceSheet
	for _, b := range s.balances[ticker] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiscalDate.After(out[j].FiscalDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertCompanyProfile(ctx context.Context, p *contracts.CompanyProfile) error {
	if p == nil || p.Ticker == "" {
		return fmt.Errorf("insert company profile: missing ticker")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Ticker] = *p
	return nil
}

func (s *Store) GetCompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[ticker]
	if !ok {
		return nil, fmt.Errorf("get company profile for %s: %w", ticker, contracts.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) GetAllCompanyProfiles(ctx context.Context) (map[string]contracts.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]contracts.CompanyProfile, len(s.profiles))
	for k, v := range s.profiles {
		out[k] = v
	}
	return out, nil
}

func (s *Store) InsertSectorPerformanceBulk(ctx context.Context, rows []contracts.SectorPerformance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		s.sectors[r.Sector+"|"+dateKey(r.Date).Format("2006-01-02")] = r
	}
	return nil
}

// SectorPerformanceCount returns the number of stored (sector, date) rows
func (s *Store) SectorPerformanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sectors)
}

// ============================================================================
// Sessions
// ============================================================================

type session struct {
	store  *Store
	closed bool
}

// OpenSession returns a write handle backed by the shared maps
func (s *Store) OpenSession(ctx context.Context) (contracts.CollectorSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openSessions++
	if s.openSessions > s.maxSessions {
		s.maxSessions = s.openSessions
	}
	return &session{store: s}, nil
}

func (ss *session) Close() {
	if ss.closed {
		return
	}
	ss.closed = true
	ss.store.mu.Lock()
	ss.store.openSessions--
	ss.store.mu.Unlock()
}

func (ss *session) InsertPriceHistory(ctx context.Context, ticker string, bars []contracts.PriceBar) error {
	return ss.store.InsertPriceHistory(ctx, ticker, bars)
}

func (ss *session) InsertIncomeStatements(ctx context.Context, ticker string, period contracts.PeriodKind, stmts []contracts.IncomeStatement) error {
	return ss.store.InsertIncomeStatements(ctx, ticker, period, stmts)
}

func (ss *session) InsertBalanceSheetAnnual(ctx context.Context, ticker string, sheets []contracts.BalanceSheet) error {
	return ss.store.InsertBalanceSheetAnnual(ctx, ticker, sheets)
}

func (ss *session) InsertCompanyProfile(ctx context.Context, p *contracts.CompanyProfile) error {
	return ss.store.InsertCompanyProfile(ctx, p)
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ contracts.Store = (*Store)(nil)
