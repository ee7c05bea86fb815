package build

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildObserver receives callbacks around phase execution and build lifecycle.
// It intentionally abstracts away the metrics.Recorder so future observers
// (logging, tracing, notifications) can hook in without changing phase code.
type BuildObserver interface {
	OnPhaseStart(phase PhaseName)
	OnPhaseComplete(phase PhaseName, duration time.Duration, result PhaseResult)
	OnBuildComplete(report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnPhaseStart(_ PhaseName)                                    {}
func (NoopObserver) OnPhaseComplete(_ PhaseName, _ time.Duration, _ PhaseResult) {}
func (NoopObserver) OnBuildComplete(_ *Report)                                   {}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnPhaseStart(_ PhaseName) {}
func (r RecorderObserver) OnPhaseComplete(phase PhaseName, d time.Duration, _ PhaseResult) {
	if r.Recorder != nil {
		r.Recorder.ObservePhaseDuration(string(phase), d)
	}
}

func (r RecorderObserver) OnBuildComplete(report *Report) {
	if r.Recorder != nil {
		r.Recorder.ObserveBuildDuration(report.End.Sub(report.Start))
		r.Recorder.IncBuildOutcome(string(report.Outcome))
		// Emit structured issues
		for _, is := range report.Issues {
			r.Recorder.IncIssue(string(is.Code), string(is.Phase), string(is.Severity))
		}
	}
}
