// Package build orchestrates a full SiteBuilder run: the phase pipeline,
// per-stage configuration assembly, the compile passes, reporting and
// metrics. One Builder.Run produces one Report.
package build

import (
	"context"
	"fmt"
)

// Phase is a discrete unit of work in a build run.
type Phase func(ctx context.Context, bs *BuildState) error

// PhaseName is a strongly-typed identifier for a build phase.
type PhaseName string

// Canonical phase names, in run order.
const (
	PhasePrepareOutput   PhaseName = "prepare_output"
	PhaseAssembleConfigs PhaseName = "assemble_configs"
	PhaseEmitConfigs     PhaseName = "emit_configs"
	PhaseCompileAssets   PhaseName = "compile_assets"
	PhaseCompilePages    PhaseName = "compile_pages"
	PhasePostProcess     PhaseName = "post_process"
	PhaseWriteReport     PhaseName = "write_report"
)

// PhaseErrorKind classifies the outcome of a phase.
type PhaseErrorKind string

const (
	PhaseErrorFatal    PhaseErrorKind = "fatal"    // Build must abort.
	PhaseErrorWarning  PhaseErrorKind = "warning"  // Non-fatal; record and continue.
	PhaseErrorCanceled PhaseErrorKind = "canceled" // Context cancellation.
)

// PhaseError is a structured error carrying the phase and underlying cause.
type PhaseError struct {
	Kind  PhaseErrorKind
	Phase PhaseName
	Err   error
}

func (e *PhaseError) Error() string { return fmt.Sprintf("%s phase %s: %v", e.Kind, e.Phase, e.Err) }
func (e *PhaseError) Unwrap() error { return e.Err }

// NewFatalPhaseError creates a new fatal phase error.
func NewFatalPhaseError(phase PhaseName, err error) *PhaseError {
	return &PhaseError{Kind: PhaseErrorFatal, Phase: phase, Err: err}
}

func NewWarnPhaseError(phase PhaseName, err error) *PhaseError {
	return &PhaseError{Kind: PhaseErrorWarning, Phase: phase, Err: err}
}

func NewCanceledPhaseError(phase PhaseName, err error) *PhaseError {
	return &PhaseError{Kind: PhaseErrorCanceled, Phase: phase, Err: err}
}

// PhaseResult captures the high-level outcome of a phase.
type PhaseResult string

const (
	PhaseResultSuccess  PhaseResult = "success"
	PhaseResultWarning  PhaseResult = "warning"
	PhaseResultFatal    PhaseResult = "fatal"
	PhaseResultCanceled PhaseResult = "canceled"
	PhaseResultSkipped  PhaseResult = "skipped"
)

// PhaseDef pairs a phase name with its executing function.
type PhaseDef struct {
	Name PhaseName
	Fn   Phase
}

// Plan is a fluent builder for ordered phase definitions.
type Plan struct{ Defs []PhaseDef }

// NewPlan creates an empty plan.
func NewPlan() *Plan { return &Plan{Defs: make([]PhaseDef, 0, 8)} }

// Add appends a phase unconditionally.
func (p *Plan) Add(name PhaseName, fn Phase) *Plan {
	p.Defs = append(p.Defs, PhaseDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a phase only if cond is true.
func (p *Plan) AddIf(cond bool, name PhaseName, fn Phase) *Plan {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the phase definitions slice.
func (p *Plan) Build() []PhaseDef {
	out := make([]PhaseDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
