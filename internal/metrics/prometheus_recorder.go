package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	phaseDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	assemblyDuration *prom.HistogramVec
	phaseResults     *prom.CounterVec
	buildOutcome     *prom.CounterVec
	stageOutcomes    *prom.CounterVec
	hookDispatches   *prom.CounterVec
	actionConflicts  *prom.CounterVec
	issues           *prom.CounterVec
	cacheLookups     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.phaseDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "phase_duration_seconds",
			Help:      "Duration of individual build phases",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.assemblyDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "assembly_duration_seconds",
			Help:      "Duration of per-stage configuration assembly (hook dispatch included)",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.phaseResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "phase_results_total",
			Help:      "Phase result counts by outcome",
		}, []string{"phase", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.stageOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "stage_outcomes_total",
			Help:      "Per compilation stage outcomes",
		}, []string{"stage", "result"})
		pr.hookDispatches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "hook_dispatches_total",
			Help:      "Hook invocations by result",
		}, []string{"hook", "result"})
		pr.actionConflicts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "action_conflicts_total",
			Help:      "Hook invocations rejected for issuing a second terminal action",
		}, []string{"stage"})
		pr.issues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_issues_total",
			Help:      "Structured build issues by code",
		}, []string{"code", "phase", "severity"})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "config_cache_lookups_total",
			Help:      "Resolved configuration cache lookups by result",
		}, []string{"result"})
		reg.MustRegister(pr.phaseDuration, pr.buildDuration, pr.assemblyDuration, pr.phaseResults, pr.buildOutcome, pr.stageOutcomes, pr.hookDispatches, pr.actionConflicts, pr.issues, pr.cacheLookups)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase string, d time.Duration) {
	if p == nil || p.phaseDuration == nil {
		return
	}
	p.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveAssemblyDuration(stage string, d time.Duration) {
	if p == nil || p.assemblyDuration == nil {
		return
	}
	p.assemblyDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPhaseResult(phase string, result ResultLabel) {
	if p == nil || p.phaseResults == nil {
		return
	}
	p.phaseResults.WithLabelValues(phase, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncStageOutcome(stage string, success bool) {
	if p == nil || p.stageOutcomes == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.stageOutcomes.WithLabelValues(stage, res).Inc()
}

func (p *PrometheusRecorder) IncHookDispatch(hook string, success bool) {
	if p == nil || p.hookDispatches == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.hookDispatches.WithLabelValues(hook, res).Inc()
}

func (p *PrometheusRecorder) IncActionConflict(stage string) {
	if p == nil || p.actionConflicts == nil {
		return
	}
	p.actionConflicts.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) IncIssue(code, phase, severity string) {
	if p == nil || p.issues == nil {
		return
	}
	p.issues.WithLabelValues(code, phase, severity).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(hit bool) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheLookups.WithLabelValues(res).Inc()
}
