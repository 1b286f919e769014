package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheTTL       = 5 * time.Minute
	cooldownPeriod = 15 * time.Minute
	latencyCeiling = 5 * time.Second
	ewmaOldWeight  = 0.7
	ewmaNewWeight  = 0.3
)

// providerStats is the aggregator's scoreboard entry for one provider.
type providerStats struct {
	success       int
	failure       int
	latencyEWMA   time.Duration
	cooldownUntil time.Time
}

// score ranks providers: success rate minus a normalized latency penalty.
func (s *providerStats) score() float64 {
	total := s.success + s.failure
	if total == 0 {
		return 1.0 // untried providers get the benefit of the doubt
	}
	rate := float64(s.success) / float64(total)
	penalty := float64(s.latencyEWMA) / float64(latencyCeiling)
	if penalty > 1 {
		penalty = 1
	}
	return rate - penalty
}

func (s *providerStats) recordSuccess(latency time.Duration) {
	s.success++
	if s.latencyEWMA == 0 {
		s.latencyEWMA = latency
	} else {
		s.latencyEWMA = time.Duration(ewmaOldWeight*float64(s.latencyEWMA) + ewmaNewWeight*float64(latency))
	}
}

func (s *providerStats) recordFailure() {
	s.failure++
}

// Aggregator fronts all web search providers: tries them in scoreboard order,
// returns the first non-empty result set, caches results briefly, and puts
// rate-limited providers on cooldown.
type Aggregator struct {
	providers []SearchProvider
	preferred string

	mu    sync.Mutex
	stats map[string]*providerStats

	cache *gocache.Cache
	now   func() time.Time
}

func NewAggregator(providers []SearchProvider, preferred string) *Aggregator {
	return &Aggregator{
		providers: providers,
		preferred: preferred,
		stats:     make(map[string]*providerStats),
		cache:     gocache.New(cacheTTL, 10*time.Minute),
		now:       time.Now,
	}
}

func (a *Aggregator) statsFor(name string) *providerStats {
	s, ok := a.stats[name]
	if !ok {
		s = &providerStats{}
		a.stats[name] = s
	}
	return s
}

// ordered returns available providers, preferred first, then by score.
func (a *Aggregator) ordered() []SearchProvider {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	var available []SearchProvider
	for _, p := range a.providers {
		if a.statsFor(p.Name()).cooldownUntil.After(now) {
			continue
		}
		available = append(available, p)
	}

	sort.SliceStable(available, func(i, j int) bool {
		ni, nj := available[i].Name(), available[j].Name()
		if ni == a.preferred && nj != a.preferred {
			return true
		}
		if nj == a.preferred && ni != a.preferred {
			return false
		}
		return a.statsFor(ni).score() > a.statsFor(nj).score()
	})
	return available
}

func (a *Aggregator) Search(ctx context.Context, query string, count int) ([]Result, error) {
	cacheKey := fmt.Sprintf("%s|%d", query, count)
	if cached, ok := a.cache.Get(cacheKey); ok {
		return cached.([]Result), nil
	}

	var lastErr error
	for _, p := range a.ordered() {
		start := a.now()
		results, err := p.Search(ctx, query, count)
		elapsed := a.now().Sub(start)

		a.mu.Lock()
		stats := a.statsFor(p.Name())
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				stats.cooldownUntil = a.now().Add(cooldownPeriod)
			}
			stats.recordFailure()
			a.mu.Unlock()
			lastErr = err
			continue
		}
		stats.recordSuccess(elapsed)
		a.mu.Unlock()

		if len(results) == 0 {
			continue
		}
		a.cache.Set(cacheKey, results, gocache.DefaultExpiration)
		return results, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all search providers failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no search provider returned results")
}
