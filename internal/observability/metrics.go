package observability

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// Collector is an in-memory metrics.Recorder. It backs the watch-mode
// shutdown summary where a scrape endpoint would be overkill.
type Collector struct {
	mu sync.RWMutex

	// Build metrics
	buildsByOutcome map[string]int64
	buildDurations  []time.Duration // Individual build durations (for percentiles)

	// Phase metrics
	phaseDurations map[string][]time.Duration
	phaseResults   map[string]map[metrics.ResultLabel]int64

	// Assembly metrics
	assemblyDurations map[string][]time.Duration
	stageSuccesses    map[string]int64
	stageFailures     map[string]int64

	// Hook metrics
	hookDispatches   map[string]int64
	hookFailures     map[string]int64
	conflictsByStage map[string]int64

	// Issue metrics
	issuesByCode map[string]int64

	// Cache metrics
	cacheHits   int64
	cacheMisses int64
}

// NewCollector creates a new in-memory collector.
func NewCollector() *Collector {
	return &Collector{
		buildsByOutcome:   make(map[string]int64),
		phaseDurations:    make(map[string][]time.Duration),
		phaseResults:      make(map[string]map[metrics.ResultLabel]int64),
		assemblyDurations: make(map[string][]time.Duration),
		stageSuccesses:    make(map[string]int64),
		stageFailures:     make(map[string]int64),
		hookDispatches:    make(map[string]int64),
		hookFailures:      make(map[string]int64),
		conflictsByStage:  make(map[string]int64),
		issuesByCode:      make(map[string]int64),
	}
}

// ObservePhaseDuration records how long a build phase took.
func (c *Collector) ObservePhaseDuration(phase string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phaseDurations[phase] = append(c.phaseDurations[phase], d)
}

// ObserveBuildDuration records the wall time of one full build.
func (c *Collector) ObserveBuildDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buildDurations = append(c.buildDurations, d)
}

// ObserveAssemblyDuration records how long one stage assembly took.
func (c *Collector) ObserveAssemblyDuration(stage string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.assemblyDurations[stage] = append(c.assemblyDurations[stage], d)
}

// IncPhaseResult counts a phase completing with the given result.
func (c *Collector) IncPhaseResult(phase string, result metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phaseResults[phase] == nil {
		c.phaseResults[phase] = make(map[metrics.ResultLabel]int64)
	}
	c.phaseResults[phase][result]++
}

// IncBuildOutcome counts a finished build by outcome.
func (c *Collector) IncBuildOutcome(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buildsByOutcome[outcome]++
}

// IncStageOutcome counts one stage assembly by success or failure.
func (c *Collector) IncStageOutcome(stage string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if success {
		c.stageSuccesses[stage]++
	} else {
		c.stageFailures[stage]++
	}
}

// IncHookDispatch counts one hook invocation.
func (c *Collector) IncHookDispatch(hook string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hookDispatches[hook]++
	if !success {
		c.hookFailures[hook]++
	}
}

// IncActionConflict counts a hook attempting a second config action.
func (c *Collector) IncActionConflict(stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conflictsByStage[stage]++
}

// IncIssue counts a reported build issue by code.
func (c *Collector) IncIssue(code, phase, severity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.issuesByCode[code]++
}

// IncCacheLookup counts one assembly cache lookup.
func (c *Collector) IncCacheLookup(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
}

// Snapshot returns a point-in-time copy of the collected metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := Snapshot{
		Timestamp:       time.Now(),
		TotalBuilds:     sumInt64Values(c.buildsByOutcome),
		BuildsByOutcome: copyStringInt64Map(c.buildsByOutcome),
		PhaseResults:    flattenPhaseResults(c.phaseResults),
		StageSuccesses:  copyStringInt64Map(c.stageSuccesses),
		StageFailures:   copyStringInt64Map(c.stageFailures),
		HookDispatches:  copyStringInt64Map(c.hookDispatches),
		HookFailures:    copyStringInt64Map(c.hookFailures),
		ActionConflicts: sumInt64Values(c.conflictsByStage),
		IssuesByCode:    copyStringInt64Map(c.issuesByCode),
		CacheHits:       c.cacheHits,
		CacheMisses:     c.cacheMisses,
		CacheHitRate:    calculateHitRate(c.cacheHits, c.cacheMisses),
	}

	for stage, durations := range c.assemblyDurations {
		if snapshot.AssembliesByStage == nil {
			snapshot.AssembliesByStage = make(map[string]int64)
		}
		snapshot.AssembliesByStage[stage] = int64(len(durations))
	}

	// Calculate percentiles
	if len(c.buildDurations) > 0 {
		snapshot.P50BuildDuration = calculatePercentile(c.buildDurations, 50)
		snapshot.P95BuildDuration = calculatePercentile(c.buildDurations, 95)
		snapshot.P99BuildDuration = calculatePercentile(c.buildDurations, 99)
		snapshot.AvgBuildDuration = calculateAverage(c.buildDurations)
	}

	return snapshot
}

// Snapshot represents a point-in-time snapshot of collected metrics.
type Snapshot struct {
	Timestamp         time.Time
	TotalBuilds       int64
	BuildsByOutcome   map[string]int64
	P50BuildDuration  time.Duration
	P95BuildDuration  time.Duration
	P99BuildDuration  time.Duration
	AvgBuildDuration  time.Duration
	PhaseResults      map[string]int64
	StageSuccesses    map[string]int64
	StageFailures     map[string]int64
	AssembliesByStage map[string]int64
	HookDispatches    map[string]int64
	HookFailures      map[string]int64
	ActionConflicts   int64
	IssuesByCode      map[string]int64
	CacheHits         int64
	CacheMisses       int64
	CacheHitRate      float64
}

// Format returns a human-readable string of metrics.
func (s Snapshot) Format() string {
	cacheTotal := s.CacheHits + s.CacheMisses
	successRate := 0.0
	if s.TotalBuilds > 0 {
		successRate = float64(s.BuildsByOutcome["success"]) / float64(s.TotalBuilds) * 100
	}

	output := fmt.Sprintf(`
=== SiteBuilder Metrics ===
Timestamp: %s

Build Metrics:
  Total Builds: %d
  Success Rate: %.2f%%
  Outcomes: %v

Build Durations:
  Average: %v
  P50: %v
  P95: %v
  P99: %v

Cache Metrics:
  Cache Hits: %d
  Cache Misses: %d
  Total Lookups: %d
  Hit Rate: %.2f%%

Phase Results: %v

Stage Assemblies:
  By Stage: %v
  Failures: %v

Hook Metrics:
  Dispatches: %v
  Failures: %v
  Action Conflicts: %d

Issues by Code: %v
======================
`,
		s.Timestamp.Format(time.RFC3339),
		s.TotalBuilds,
		successRate,
		s.BuildsByOutcome,
		s.AvgBuildDuration,
		s.P50BuildDuration,
		s.P95BuildDuration,
		s.P99BuildDuration,
		s.CacheHits,
		s.CacheMisses,
		cacheTotal,
		s.CacheHitRate*100,
		s.PhaseResults,
		s.AssembliesByStage,
		s.StageFailures,
		s.HookDispatches,
		s.HookFailures,
		s.ActionConflicts,
		s.IssuesByCode,
	)

	return output
}

// Helper functions

func flattenPhaseResults(m map[string]map[metrics.ResultLabel]int64) map[string]int64 {
	result := make(map[string]int64)
	for phase, counts := range m {
		for label, n := range counts {
			result[phase+"/"+string(label)] = n
		}
	}
	return result
}

func copyStringInt64Map(m map[string]int64) map[string]int64 {
	result := make(map[string]int64)
	for k, v := range m {
		result[k] = v
	}
	return result
}

func sumInt64Values(m map[string]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

func calculateHitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func calculateAverage(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func calculatePercentile(durations []time.Duration, percentile int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	// Sort durations for accurate percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := (len(sorted) * percentile) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
