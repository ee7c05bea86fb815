package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/observability"
)

// RunPhases executes phases in order, recording timing and stopping on first fatal error.
func RunPhases(ctx context.Context, bs *BuildState, phases []PhaseDef) error {
	for _, ph := range phases {
		select {
		case <-ctx.Done():
			pe := NewCanceledPhaseError(ph.Name, ctx.Err())
			bs.Report.PhaseErrorKinds[ph.Name] = pe.Kind
			bs.Report.AddIssue(IssueCanceled, ph.Name, SeverityError, pe.Error(), pe)
			bs.Report.RecordPhaseResult(ph.Name, PhaseResultCanceled, bs.Recorder)
			if bs.Observer != nil {
				bs.Observer.OnPhaseComplete(ph.Name, 0, PhaseResultCanceled)
			}
			return pe
		default:
		}

		if bs.Observer != nil {
			bs.Observer.OnPhaseStart(ph.Name)
		}

		pctx := observability.WithPhase(ctx, string(ph.Name))

		t0 := time.Now()
		err := ph.Fn(pctx, bs)
		dur := time.Since(t0)

		bs.Report.PhaseDurations[string(ph.Name)] = dur

		out := ClassifyPhaseResult(ph.Name, err)

		observability.DebugContext(pctx, "Phase finished",
			slog.String("result", string(out.Result)),
			slog.Float64("duration_ms", float64(dur.Milliseconds())))

		if out.Error != nil { // error path
			bs.Report.PhaseErrorKinds[ph.Name] = out.Error.Kind
			bs.Report.AddIssue(out.Code, ph.Name, out.Severity, out.Error.Error(), out.Error)
		}

		bs.Report.RecordPhaseResult(ph.Name, out.Result, bs.Recorder)

		if bs.Observer != nil {
			bs.Observer.OnPhaseComplete(ph.Name, dur, out.Result)
		}

		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("phase %s aborted", ph.Name)
		}
	}

	return nil
}
