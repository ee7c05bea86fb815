package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

// NewReport constructs a Report for one build run.
func NewReport(buildID string, stages []string) *Report {
	return &Report{
		SchemaVersion:      1,
		BuildID:            buildID,
		Stages:             stages,
		Start:              time.Now(),
		PhaseDurations:     make(map[string]time.Duration),
		PhaseErrorKinds:    make(map[PhaseName]PhaseErrorKind),
		PhaseCounts:        make(map[PhaseName]PhaseCount),
		ConfigHashes:       make(map[string]string),
		HookInvocations:    make(map[string]int),
		SiteBuilderVersion: version.Version,
	}
}

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Report captures what happened during one build run.
type Report struct {
	SchemaVersion   int // schema version for external consumers
	BuildID         string
	Stages          []string // stage names this run covered, run order
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion (at most one today)
	Warnings        []error // non-fatal issues recorded along the way
	PhaseDurations  map[string]time.Duration
	PhaseErrorKinds map[PhaseName]PhaseErrorKind // phase -> error kind (fatal|warning|canceled)
	PhaseCounts     map[PhaseName]PhaseCount     // per-phase classification counts
	// ConfigHashes maps stage name to the hash of its finalized configuration.
	ConfigHashes map[string]string
	// HookInvocations counts dispatches per hook name across all stages.
	// Cached assemblies do not dispatch and do not count.
	HookInvocations map[string]int
	CacheHits       int
	EmittedAssets   int
	RenderedPages   int
	SkippedDrafts   int
	RewrittenRefs   int
	Outcome         BuildOutcome
	// Issues captures structured machine-parseable taxonomy entries for automation.
	Issues             []ReportIssue
	SiteBuilderVersion string
}

// ReportIssueCode enumerates machine-parseable issue identifiers.
// These codes are stable contract and should only be appended (no reuse on removal).
type ReportIssueCode string

const (
	IssueHookFailure       ReportIssueCode = "HOOK_FAILURE"
	IssueActionConflict    ReportIssueCode = "ACTION_CONFLICT"
	IssueValidationFailure ReportIssueCode = "VALIDATION_FAILURE"
	IssueFactoryNotFound   ReportIssueCode = "FACTORY_NOT_FOUND"
	IssueCompileFailure    ReportIssueCode = "COMPILE_FAILURE"
	IssuePerformanceBudget ReportIssueCode = "PERFORMANCE_BUDGET"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericPhaseError ReportIssueCode = "GENERIC_PHASE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured taxonomy entry describing a discrete problem encountered.
type ReportIssue struct {
	Code     ReportIssueCode `json:"code"`
	Phase    PhaseName       `json:"phase"`
	Severity IssueSeverity   `json:"severity"`
	Message  string          `json:"message"`
}

// PhaseCount aggregates counts of outcomes for a phase.
type PhaseCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings.
func (r *Report) AddIssue(code ReportIssueCode, phase PhaseName, severity IssueSeverity, msg string, err error) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Phase: phase, Severity: severity, Message: msg})
	if err != nil {
		switch severity {
		case SeverityError:
			r.Errors = append(r.Errors, err)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, err)
		}
	}
}

// Finish sets the end time of the report.
func (r *Report) Finish() { r.End = time.Now() }

// RecordPhaseResult updates Report counters and emits metrics (if recorder non-nil).
func (r *Report) RecordPhaseResult(phase PhaseName, res PhaseResult, recorder metrics.Recorder) {
	if r.PhaseCounts == nil {
		r.PhaseCounts = make(map[PhaseName]PhaseCount)
	}
	pc := r.PhaseCounts[phase]
	switch res {
	case PhaseResultSuccess:
		pc.Success++
		if recorder != nil {
			recorder.IncPhaseResult(string(phase), metrics.ResultSuccess)
		}
	case PhaseResultWarning:
		pc.Warning++
		if recorder != nil {
			recorder.IncPhaseResult(string(phase), metrics.ResultWarning)
		}
	case PhaseResultFatal:
		pc.Fatal++
		if recorder != nil {
			recorder.IncPhaseResult(string(phase), metrics.ResultFatal)
		}
	case PhaseResultCanceled:
		pc.Canceled++
		if recorder != nil {
			recorder.IncPhaseResult(string(phase), metrics.ResultCanceled)
		}
	case PhaseResultSkipped:
		// No counters for skipped yet
	}
	r.PhaseCounts[phase] = pc
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("build_id=%s stages=%d duration=%s errors=%d warnings=%d phases=%d assets=%d pages=%d outcome=%s",
		r.BuildID, len(r.Stages), dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), len(r.PhaseDurations), r.EmittedAssets, r.RenderedPages, string(r.Outcome))
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *Report) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var pe *PhaseError
			if errors.As(e, &pe) && pe.Kind == PhaseErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Persist writes the report atomically into the provided root directory.
func (r *Report) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	// JSON
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	// Text summary
	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// SanitizedCopy returns a shallow copy with error fields converted to strings for JSON friendliness.
func (r *Report) SanitizedCopy() *ReportSerializable {
	phaseCounts := make(map[string]PhaseCount, len(r.PhaseCounts))
	for k, v := range r.PhaseCounts {
		phaseCounts[string(k)] = v
	}
	pek := make(map[string]string, len(r.PhaseErrorKinds))
	for k, v := range r.PhaseErrorKinds {
		pek[string(k)] = string(v)
	}

	if r.PhaseDurations == nil {
		r.PhaseDurations = map[string]time.Duration{}
	}
	if r.ConfigHashes == nil {
		r.ConfigHashes = map[string]string{}
	}
	if r.HookInvocations == nil {
		r.HookInvocations = map[string]int{}
	}
	if r.Issues == nil {
		r.Issues = []ReportIssue{}
	}
	if r.Stages == nil {
		r.Stages = []string{}
	}

	s := &ReportSerializable{
		SchemaVersion:      r.SchemaVersion,
		BuildID:            r.BuildID,
		Stages:             r.Stages,
		Start:              r.Start,
		End:                r.End,
		Errors:             make([]string, len(r.Errors)),
		Warnings:           make([]string, len(r.Warnings)),
		PhaseDurations:     r.PhaseDurations,
		PhaseErrorKinds:    pek,
		PhaseCounts:        phaseCounts,
		ConfigHashes:       r.ConfigHashes,
		HookInvocations:    r.HookInvocations,
		CacheHits:          r.CacheHits,
		EmittedAssets:      r.EmittedAssets,
		RenderedPages:      r.RenderedPages,
		SkippedDrafts:      r.SkippedDrafts,
		RewrittenRefs:      r.RewrittenRefs,
		Outcome:            string(r.Outcome),
		Issues:             r.Issues,
		SiteBuilderVersion: r.SiteBuilderVersion,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// ReportSerializable mirrors Report but with string errors for JSON output.
type ReportSerializable struct {
	SchemaVersion      int                      `json:"schema_version"`
	BuildID            string                   `json:"build_id"`
	Stages             []string                 `json:"stages"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	Errors             []string                 `json:"errors"`
	Warnings           []string                 `json:"warnings"`
	PhaseDurations     map[string]time.Duration `json:"phase_durations"`
	PhaseErrorKinds    map[string]string        `json:"phase_error_kinds"`
	PhaseCounts        map[string]PhaseCount    `json:"phase_counts"`
	ConfigHashes       map[string]string        `json:"config_hashes"`
	HookInvocations    map[string]int           `json:"hook_invocations"`
	CacheHits          int                      `json:"cache_hits"`
	EmittedAssets      int                      `json:"emitted_assets"`
	RenderedPages      int                      `json:"rendered_pages"`
	SkippedDrafts      int                      `json:"skipped_drafts,omitempty"`
	RewrittenRefs      int                      `json:"rewritten_refs,omitempty"`
	Outcome            string                   `json:"outcome"`
	Issues             []ReportIssue            `json:"issues"`
	SiteBuilderVersion string                   `json:"sitebuilder_version,omitempty"`
}
