package metrics

import "time"

// ResultLabel enumerates phase result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build, phase and assembly metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	ObserveAssemblyDuration(stage string, d time.Duration)
	IncPhaseResult(phase string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	IncStageOutcome(stage string, success bool)
	IncHookDispatch(hook string, success bool)
	IncActionConflict(stage string)
	IncIssue(code, phase, severity string)
	IncCacheLookup(hit bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) ObserveAssemblyDuration(string, time.Duration) {}
func (NoopRecorder) IncPhaseResult(string, ResultLabel)            {}
func (NoopRecorder) IncBuildOutcome(string)                        {}
func (NoopRecorder) IncStageOutcome(string, bool)                  {}
func (NoopRecorder) IncHookDispatch(string, bool)                  {}
func (NoopRecorder) IncActionConflict(string)                      {}
func (NoopRecorder) IncIssue(string, string, string)               {}
func (NoopRecorder) IncCacheLookup(bool)                           {}
