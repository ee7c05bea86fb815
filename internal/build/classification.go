package build

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/compile"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
)

// PhaseOutcome is the normalized result of phase execution.
type PhaseOutcome struct {
	Phase    PhaseName
	Error    *PhaseError
	Result   PhaseResult
	Code     ReportIssueCode
	Severity IssueSeverity
	Abort    bool
}

// resultFromPhaseErrorKind maps a PhaseErrorKind to a PhaseResult.
func resultFromPhaseErrorKind(k PhaseErrorKind) PhaseResult {
	switch k {
	case PhaseErrorWarning:
		return PhaseResultWarning
	case PhaseErrorCanceled:
		return PhaseResultCanceled
	case PhaseErrorFatal:
		return PhaseResultFatal
	default:
		return PhaseResultFatal
	}
}

// severityFromPhaseErrorKind maps PhaseErrorKind to IssueSeverity.
func severityFromPhaseErrorKind(k PhaseErrorKind) IssueSeverity {
	if k == PhaseErrorWarning {
		return SeverityWarning
	}
	return SeverityError
}

// ClassifyPhaseResult converts a raw error from a phase into a PhaseOutcome.
func ClassifyPhaseResult(phase PhaseName, err error) PhaseOutcome {
	if err == nil {
		return PhaseOutcome{Phase: phase, Result: PhaseResultSuccess}
	}

	var pe *PhaseError
	if !errors.As(err, &pe) {
		// Raw context errors out of a compile walk count as cancellation,
		// anything else unwrapped is fatal.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			pe = NewCanceledPhaseError(phase, err)
		} else {
			pe = NewFatalPhaseError(phase, err)
		}
	}

	// Cancellation applies to all phases
	if pe.Kind == PhaseErrorCanceled {
		return PhaseOutcome{
			Phase:    phase,
			Error:    pe,
			Result:   PhaseResultCanceled,
			Code:     IssueCanceled,
			Severity: SeverityError,
			Abort:    true,
		}
	}

	return PhaseOutcome{
		Phase:    phase,
		Error:    pe,
		Result:   resultFromPhaseErrorKind(pe.Kind),
		Code:     classifyIssueCode(phase, pe),
		Severity: severityFromPhaseErrorKind(pe.Kind),
		Abort:    pe.Kind == PhaseErrorFatal,
	}
}

// classifyIssueCode maps the underlying cause to the issue taxonomy. An
// action conflict surfaces wrapped inside a dispatch error, so its sentinel
// check runs before the dispatch check.
func classifyIssueCode(phase PhaseName, pe *PhaseError) ReportIssueCode {
	cause := pe.Err

	var (
		ve *bundler.ValidationError
		nf *factory.NotFoundError
		de *hooks.DispatchError
		be *compile.BudgetError
	)
	switch {
	case errors.Is(cause, hooks.ErrActionConflict):
		return IssueActionConflict
	case errors.As(cause, &ve):
		return IssueValidationFailure
	case errors.As(cause, &nf):
		return IssueFactoryNotFound
	case errors.As(cause, &de):
		return IssueHookFailure
	case errors.As(cause, &be):
		return IssuePerformanceBudget
	}

	switch phase {
	case PhaseCompileAssets, PhaseCompilePages, PhasePostProcess:
		return IssueCompileFailure
	default:
		return IssueGenericPhaseError
	}
}
