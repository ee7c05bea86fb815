package build

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/compile"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// recordingObserver captures observer callbacks for assertions.
type recordingObserver struct {
	starts    []PhaseName
	completes []PhaseName
	results   []PhaseResult
}

func (o *recordingObserver) OnPhaseStart(p PhaseName) { o.starts = append(o.starts, p) }

func (o *recordingObserver) OnPhaseComplete(p PhaseName, _ time.Duration, r PhaseResult) {
	o.completes = append(o.completes, p)
	o.results = append(o.results, r)
}

func (o *recordingObserver) OnBuildComplete(*Report) {}

func newRunnerState(obs BuildObserver) *BuildState {
	return &BuildState{
		ID:       "run-test",
		Report:   NewReport("run-test", []string{"build-assets"}),
		Recorder: metrics.NoopRecorder{},
		Observer: obs,
	}
}

func namedPhase(name PhaseName, ran *[]PhaseName, err error) PhaseDef {
	return PhaseDef{Name: name, Fn: func(context.Context, *BuildState) error {
		*ran = append(*ran, name)
		return err
	}}
}

func TestRunPhases_RunsAllInOrder(t *testing.T) {
	obs := &recordingObserver{}
	bs := newRunnerState(obs)

	var ran []PhaseName
	phases := []PhaseDef{
		namedPhase("first", &ran, nil),
		namedPhase("second", &ran, nil),
	}

	require.NoError(t, RunPhases(context.Background(), bs, phases))
	require.Equal(t, []PhaseName{"first", "second"}, ran)
	require.Equal(t, []PhaseName{"first", "second"}, obs.starts)
	require.Equal(t, []PhaseResult{PhaseResultSuccess, PhaseResultSuccess}, obs.results)
	require.Contains(t, bs.Report.PhaseDurations, "first")
	require.Equal(t, 1, bs.Report.PhaseCounts["second"].Success)
	require.Empty(t, bs.Report.Issues)
}

func TestRunPhases_FatalAborts(t *testing.T) {
	obs := &recordingObserver{}
	bs := newRunnerState(obs)

	var ran []PhaseName
	phases := []PhaseDef{
		namedPhase("boom", &ran, errors.New("exploded")),
		namedPhase("after", &ran, nil),
	}

	err := RunPhases(context.Background(), bs, phases)
	require.Error(t, err)

	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, PhaseErrorFatal, pe.Kind)
	require.Equal(t, PhaseName("boom"), pe.Phase)

	require.Equal(t, []PhaseName{"boom"}, ran, "phases after a fatal error must not run")
	require.Equal(t, PhaseErrorFatal, bs.Report.PhaseErrorKinds["boom"])
	require.Len(t, bs.Report.Issues, 1)
	require.Equal(t, IssueGenericPhaseError, bs.Report.Issues[0].Code)
	require.Equal(t, 1, bs.Report.PhaseCounts["boom"].Fatal)
}

func TestRunPhases_WarningContinues(t *testing.T) {
	bs := newRunnerState(&recordingObserver{})

	var ran []PhaseName
	phases := []PhaseDef{
		{Name: "lenient", Fn: func(context.Context, *BuildState) error {
			ran = append(ran, "lenient")
			return NewWarnPhaseError("lenient", errors.New("tolerable"))
		}},
		namedPhase("after", &ran, nil),
	}

	require.NoError(t, RunPhases(context.Background(), bs, phases))
	require.Equal(t, []PhaseName{"lenient", "after"}, ran)
	require.Len(t, bs.Report.Warnings, 1)
	require.Empty(t, bs.Report.Errors)

	bs.Report.DeriveOutcome()
	require.Equal(t, OutcomeWarning, bs.Report.Outcome)
}

func TestRunPhases_PreCanceledContext(t *testing.T) {
	obs := &recordingObserver{}
	bs := newRunnerState(obs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []PhaseName
	err := RunPhases(ctx, bs, []PhaseDef{namedPhase("never", &ran, nil)})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	require.Empty(t, ran)
	require.Empty(t, obs.starts)
	require.Equal(t, []PhaseResult{PhaseResultCanceled}, obs.results)
	require.Equal(t, IssueCanceled, bs.Report.Issues[0].Code)

	bs.Report.DeriveOutcome()
	require.Equal(t, OutcomeCanceled, bs.Report.Outcome)
}

func TestClassifyPhaseResult(t *testing.T) {
	conflict := &hooks.DispatchError{
		Hook:  "theme",
		Stage: stage.BuildAssets,
		Err:   &hooks.UsageError{Hook: "theme", Stage: stage.BuildAssets, Action: "replace"},
	}
	dispatch := &hooks.DispatchError{Hook: "theme", Stage: stage.BuildAssets, Err: errors.New("hook blew up")}
	notFound := &factory.NotFoundError{Kind: "loader", Name: "sass"}
	invalid := &bundler.ValidationError{Missing: []string{"output.dir"}}

	cases := []struct {
		name   string
		phase  PhaseName
		err    error
		result PhaseResult
		code   ReportIssueCode
		abort  bool
	}{
		{"nil is success", PhaseEmitConfigs, nil, PhaseResultSuccess, "", false},
		{"plain error is fatal generic", PhasePrepareOutput, errors.New("disk full"), PhaseResultFatal, IssueGenericPhaseError, true},
		{"plain error in a compile phase", PhaseCompilePages, errors.New("render failed"), PhaseResultFatal, IssueCompileFailure, true},
		{"raw context cancellation", PhaseCompileAssets, context.Canceled, PhaseResultCanceled, IssueCanceled, true},
		{"action conflict outranks dispatch", PhaseAssembleConfigs, fmt.Errorf("assemble: %w", conflict), PhaseResultFatal, IssueActionConflict, true},
		{"dispatch failure", PhaseAssembleConfigs, fmt.Errorf("assemble: %w", dispatch), PhaseResultFatal, IssueHookFailure, true},
		{"factory not found", PhaseAssembleConfigs, fmt.Errorf("assemble: %w", notFound), PhaseResultFatal, IssueFactoryNotFound, true},
		{"validation failure", PhaseAssembleConfigs, fmt.Errorf("finalize: %w", invalid), PhaseResultFatal, IssueValidationFailure, true},
		{"budget warning", PhaseCompileAssets, NewWarnPhaseError(PhaseCompileAssets, &compile.BudgetError{Violations: []string{"big.png"}}), PhaseResultWarning, IssuePerformanceBudget, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := ClassifyPhaseResult(tc.phase, tc.err)
			require.Equal(t, tc.result, out.Result)
			require.Equal(t, tc.abort, out.Abort)
			if tc.err == nil {
				require.Nil(t, out.Error)
				return
			}
			require.Equal(t, tc.code, out.Code)
		})
	}
}
