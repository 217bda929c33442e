// Package query answers read-only questions about students, cards,
// transactions and the menu. Every operation reads one consistent view of the
// store.
package query

import (
	"canteen_system/internal/cache"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StatsKey prefixes the cache keys of the dashboard stats. The full key also
// names the service instance and the store version the stats were computed
// at, so stats cached before a commit are never read after it.
const StatsKey = "canteen:stats"

// Service runs queries against a store
type Service struct {
	store *store.Store
	loc   *time.Location
	now   func() time.Time
	cache cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger

	instance string     // Separates stores of different processes sharing a cache
	mu       sync.Mutex // Guards lastKey
	lastKey  string     // Most recent stats key written
}

// Option configures a Service
type Option func(*Service)

// WithLocation sets the time zone that decides which day "today" is
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache caches dashboard stats for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a Service over st
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		loc:   time.UTC,
		now:   time.Now,
		cache: cache.Nop{},
		log:   logrus.StandardLogger(),

		instance: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DashboardStats returns the admin overview, from the cache when possible
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var version uint64
	_ = s.store.View(func(r store.Reader) error {
		version = r.Version()
		return nil
	})

	var stats domain.DashboardStats
	key := s.statsKey(version)
	found, err := s.cache.Get(ctx, key, &stats)
	if err != nil {
		s.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	} else if found {
		return stats, nil
	}

	// The stats and the version they are stored under come from one view.
	err = s.store.View(func(r store.Reader) error {
		stats = s.computeStats(r)
		version = r.Version()
		return nil
	})
	if err != nil {
		return domain.DashboardStats{}, err
	}

	key = s.statsKey(version)
	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
		return stats, nil
	}
	s.mu.Lock()
	s.lastKey = key
	s.mu.Unlock()
	return stats, nil
}

// Invalidate drops cached stats that no longer match the store. The ledger
// calls it after every commit; entries it misses expire with their TTL and are
// never read, since their version is gone.
func (s *Service) Invalidate(ctx context.Context) error {
	var version uint64
	_ = s.store.View(func(r store.Reader) error {
		version = r.Version()
		return nil
	})

	s.mu.Lock()
	key := s.lastKey
	if key == s.statsKey(version) {
		key = ""
	} else {
		s.lastKey = ""
	}
	s.mu.Unlock()

	if key == "" {
		return nil
	}
	return s.cache.Delete(ctx, key)
}

func (s *Service) statsKey(version uint64) string {
	return fmt.Sprintf("%s:%s:%d", StatsKey, s.instance, version)
}

func (s *Service) computeStats(r store.Reader) domain.DashboardStats {
	y, m, d := s.now().In(s.loc).Date()
	stats := domain.DashboardStats{
		TotalStudents: len(r.Students()),
		TotalBalance:  decimal.Zero,
		TodayRevenue:  decimal.Zero,
	}
	for _, c := range r.Cards() {
		stats.TotalBalance = stats.TotalBalance.Add(c.Balance)
		if c.IsActive {
			stats.ActiveCards++
		}
	}
	for _, t := range r.Transactions() {
		stats.TotalTransactions++
		switch t.Type {
		case domain.TypeRecharge:
			if t.Status == domain.StatusPending {
				stats.PendingRecharges++
			}
		case domain.TypeMealPurchase:
			if !t.Affects() {
				continue
			}
			ty, tm, td := t.CreatedAt.In(s.loc).Date()
			if ty == y && tm == m && td == d {
				stats.TodayRevenue = stats.TodayRevenue.Add(t.Amount.Abs())
			}
		}
	}
	return stats
}
