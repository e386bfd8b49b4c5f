package proxy

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Strategy selects which working endpoint handles the next request.
type Strategy string

const (
	RoundRobin      Strategy = "round_robin"
	Random          Strategy = "random"
	BestPerformance Strategy = "best_performance"
	WeightedRandom  Strategy = "weighted_random"
)

// ParseStrategy validates a rotation strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case RoundRobin, Random, BestPerformance, WeightedRandom:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("invalid rotation strategy: %q", s)
}

// ErrNoWorkingProxies is returned when every endpoint in the pool has been
// marked non-working.
var ErrNoWorkingProxies = errors.New("no working proxies available")

// Options tune pool behavior. Zero values fall back to defaults.
type Options struct {
	Strategy        Strategy
	MaxFailures     int           // failures before an endpoint is marked non-working
	TestURL         string        // health check target
	TestTimeout     time.Duration // per-probe timeout
	DispatchTimeout time.Duration // per-request timeout for Dispatch
	Retries         int           // dispatch attempts across endpoints
	Backoff         time.Duration // pause between dispatch attempts
}

// Pool maintains the endpoint set and hands out one endpoint per outbound
// request. All state is guarded by a single mutex so concurrent callers
// cannot corrupt counters or the rotation index.
type Pool struct {
	mu        sync.Mutex
	endpoints []*Endpoint
	index     int
	rng       *rand.Rand

	strategy        Strategy
	maxFailures     int
	testURL         string
	testTimeout     time.Duration
	dispatchTimeout time.Duration
	retries         int
	backoff         time.Duration
	onOutcome       func(success bool)

	logger *zap.Logger
}

func NewPool(opts Options, logger *zap.Logger) *Pool {
	if opts.Strategy == "" {
		opts.Strategy = RoundRobin
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 3
	}
	if opts.TestURL == "" {
		opts.TestURL = "http://httpbin.org/ip"
	}
	if opts.TestTimeout <= 0 {
		opts.TestTimeout = 10 * time.Second
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 30 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Pool{
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		strategy:        opts.Strategy,
		maxFailures:     opts.MaxFailures,
		testURL:         opts.TestURL,
		testTimeout:     opts.TestTimeout,
		dispatchTimeout: opts.DispatchTimeout,
		retries:         opts.Retries,
		backoff:         opts.Backoff,
		logger:          logger,
	}
}

// OnOutcome registers a hook invoked once per dispatched request with its
// success or failure, used to feed the dispatch counter.
func (p *Pool) OnOutcome(fn func(success bool)) {
	p.onOutcome = fn
}

// Load populates the pool from the given sources. A failing source is logged
// and skipped; loading continues with the rest.
func (p *Pool) Load(ctx context.Context, sources ...Source) {
	for _, src := range sources {
		endpoints, err := src.Fetch(ctx)
		if err != nil {
			p.logger.Warn("failed to load proxies from source",
				zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		p.mu.Lock()
		p.endpoints = append(p.endpoints, endpoints...)
		p.mu.Unlock()
		p.logger.Info("loaded proxies",
			zap.String("source", src.Name()), zap.Int("count", len(endpoints)))
	}
}

// Add registers a manually configured endpoint.
func (p *Pool) Add(e *Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.Working = true
	p.endpoints = append(p.endpoints, e)
}

// Size returns total and working endpoint counts.
func (p *Pool) Size() (total, working int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.endpoints {
		if e.Working {
			working++
		}
	}
	return len(p.endpoints), working
}

// SelectNext returns a working endpoint chosen by the active strategy, or
// nil when the working set is empty. The returned endpoint must not be
// mutated by the caller; report results through RecordOutcome.
func (p *Pool) SelectNext() *Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectLocked()
}

func (p *Pool) selectLocked() *Endpoint {
	working := make([]*Endpoint, 0, len(p.endpoints))
	for _, e := range p.endpoints {
		if e.Working {
			working = append(working, e)
		}
	}
	if len(working) == 0 {
		return nil
	}

	var chosen *Endpoint
	switch p.strategy {
	case Random:
		chosen = working[p.rng.Intn(len(working))]
	case BestPerformance:
		sorted := make([]*Endpoint, len(working))
		copy(sorted, working)
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := sorted[i].SuccessRate(), sorted[j].SuccessRate()
			if ri != rj {
				return ri > rj
			}
			// Endpoints with no measured latency rank last, not first.
			li, lj := sorted[i].ResponseTime, sorted[j].ResponseTime
			if li == 0 {
				return false
			}
			if lj == 0 {
				return true
			}
			return li < lj
		})
		chosen = sorted[0]
	case WeightedRandom:
		chosen = p.weightedPickLocked(working)
	default: // RoundRobin
		chosen = working[p.index%len(working)]
		p.index = (p.index + 1) % len(working)
	}

	chosen.LastUsed = time.Now()
	return chosen
}

// weightedPickLocked samples by success rate. A small floor weight keeps
// zero-rate endpoints selectable with near-zero probability.
func (p *Pool) weightedPickLocked(working []*Endpoint) *Endpoint {
	const floor = 0.001
	total := 0.0
	for _, e := range working {
		total += e.SuccessRate() + floor
	}
	target := p.rng.Float64() * total
	for _, e := range working {
		target -= e.SuccessRate() + floor
		if target <= 0 {
			return e
		}
	}
	return working[len(working)-1]
}

// RecordOutcome applies the result of one request dispatched through the
// endpoint. Reaching the failure threshold marks it non-working.
func (p *Pool) RecordOutcome(e *Endpoint, success bool, latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		e.SuccessCount++
		e.ResponseTime = latency
		e.LastUsed = time.Now()
		return
	}
	e.FailureCount++
	if e.FailureCount >= p.maxFailures {
		if e.Working {
			p.logger.Info("marking proxy as non-working", zap.String("proxy", e.Addr()))
		}
		e.Working = false
	}
}

func (p *Pool) clientFor(e *Endpoint, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyURL(e.URL()),
		},
	}
}

// Dispatch performs the request through a rotated endpoint, retrying with a
// freshly selected endpoint on failure. The caller always receives either a
// response or an explicit error.
func (p *Pool) Dispatch(ctx context.Context, method, rawURL string, header http.Header) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < p.retries; attempt++ {
		endpoint := p.SelectNext()
		if endpoint == nil {
			return nil, ErrNoWorkingProxies
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		start := time.Now()
		resp, err := p.clientFor(endpoint, p.dispatchTimeout).Do(req)
		latency := time.Since(start)
		if p.onOutcome != nil {
			p.onOutcome(err == nil)
		}
		if err == nil {
			p.RecordOutcome(endpoint, true, latency)
			return resp, nil
		}

		p.RecordOutcome(endpoint, false, latency)
		p.logger.Warn("request failed through proxy",
			zap.String("proxy", endpoint.Addr()), zap.Error(err))
		lastErr = err

		if attempt < p.retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.backoff):
			}
		}
	}
	return nil, fmt.Errorf("dispatch to %s failed after %d retries: %w", rawURL, p.retries, lastErr)
}

// HealthCheckAll probes every endpoint against the test target and prunes
// the ones that fail from the active pool. Historical stats on surviving
// endpoints are kept.
func (p *Pool) HealthCheckAll(ctx context.Context) (working, failed int) {
	p.mu.Lock()
	endpoints := make([]*Endpoint, len(p.endpoints))
	copy(endpoints, p.endpoints)
	p.mu.Unlock()

	for _, e := range endpoints {
		ok := p.probe(ctx, e)
		if ok {
			working++
		} else {
			failed++
		}
	}

	p.mu.Lock()
	kept := p.endpoints[:0]
	for _, e := range p.endpoints {
		if e.Working {
			kept = append(kept, e)
		}
	}
	p.endpoints = kept
	p.index = 0
	p.mu.Unlock()

	p.logger.Info("proxy health check complete",
		zap.Int("working", working), zap.Int("failed", failed))
	return working, failed
}

func (p *Pool) probe(ctx context.Context, e *Endpoint) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.testTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.testURL, nil)
	if err != nil {
		p.RecordOutcome(e, false, 0)
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	start := time.Now()
	resp, err := p.clientFor(e, p.testTimeout).Do(req)
	latency := time.Since(start)
	if err != nil {
		p.RecordOutcome(e, false, latency)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.RecordOutcome(e, false, latency)
		return false
	}
	p.RecordOutcome(e, true, latency)
	return true
}

// Stats summarizes pool state for the API and CLI.
type Stats struct {
	Total          int              `json:"total_proxies"`
	Working        int              `json:"working_proxies"`
	Failed         int              `json:"failed_proxies"`
	Strategy       Strategy         `json:"rotation_strategy"`
	AvgSuccessRate float64          `json:"avg_success_rate"`
	AvgLatency     time.Duration    `json:"avg_response_time"`
	MinLatency     time.Duration    `json:"min_response_time"`
	MaxLatency     time.Duration    `json:"max_response_time"`
	Countries      map[string]int   `json:"country_distribution"`
	Protocols      map[Protocol]int `json:"type_distribution"`
	Endpoints      []Snapshot       `json:"endpoints"`
}

// GetStats returns a snapshot of pool statistics.
func (p *Pool) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{
		Total:     len(p.endpoints),
		Strategy:  p.strategy,
		Countries: make(map[string]int),
		Protocols: make(map[Protocol]int),
	}

	var rateSum float64
	var latencySum time.Duration
	var latencyCount int
	for _, e := range p.endpoints {
		stats.Endpoints = append(stats.Endpoints, e.snapshot())
		if !e.Working {
			stats.Failed++
			continue
		}
		stats.Working++
		rateSum += e.SuccessRate()
		country := e.Country
		if country == "" {
			country = "unknown"
		}
		stats.Countries[country]++
		stats.Protocols[e.Protocol]++
		if e.ResponseTime > 0 {
			latencySum += e.ResponseTime
			latencyCount++
			if stats.MinLatency == 0 || e.ResponseTime < stats.MinLatency {
				stats.MinLatency = e.ResponseTime
			}
			if e.ResponseTime > stats.MaxLatency {
				stats.MaxLatency = e.ResponseTime
			}
		}
	}
	if stats.Working > 0 {
		stats.AvgSuccessRate = rateSum / float64(stats.Working)
	}
	if latencyCount > 0 {
		stats.AvgLatency = latencySum / time.Duration(latencyCount)
	}
	return stats
}

// ResetStats clears all recorded history and marks every endpoint working
// again.
func (p *Pool) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.endpoints {
		e.SuccessCount = 0
		e.FailureCount = 0
		e.ResponseTime = 0
		e.Working = true
	}
	p.index = 0
}

// WorkingSnapshots returns copies of the currently working endpoints, used
// when persisting a vetted list to disk.
func (p *Pool) WorkingSnapshots() []*Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Endpoint, 0, len(p.endpoints))
	for _, e := range p.endpoints {
		if e.Working {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out
}
