package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/compile"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// Options configures a Builder. Only Project is required.
type Options struct {
	Project *config.Config
	// Dispatcher carries the caller's registered hooks. Nil means a fresh
	// dispatcher with the built-in factories and no hooks.
	Dispatcher *hooks.Dispatcher
	// Cache holds resolved configurations across runs (watch mode). Nil
	// means every run assembles from scratch through a fresh cache.
	Cache    *cache.Cache
	Recorder metrics.Recorder // nil means NoopRecorder
	Observer BuildObserver    // nil means RecorderObserver over Recorder
	// OutputDir overrides the project output dir when set.
	OutputDir string
	// Stages overrides the project stage selection when set.
	Stages []stage.Stage
}

// Builder runs complete site builds: one Run assembles, emits and compiles
// every configured stage and leaves a report behind.
type Builder struct {
	project   *config.Config
	assembler *assemble.Assembler
	recorder  metrics.Recorder
	observer  BuildObserver
	outputDir string
	stages    []stage.Stage
}

// New wires a Builder. The project config fragment hook registers last, so
// file-based overrides win over code hooks registered earlier by the caller.
func New(opts Options) (*Builder, error) {
	if opts.Project == nil {
		return nil, fmt.Errorf("build: project configuration required")
	}

	asm, err := assemble.New(opts.Project, opts.Dispatcher, opts.Cache)
	if err != nil {
		return nil, err
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = RecorderObserver{Recorder: recorder}
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = opts.Project.Output.Dir
	}
	stages := opts.Stages
	if len(stages) == 0 {
		stages = opts.Project.Build.Stages
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("build: no stages selected")
	}

	return &Builder{
		project:   opts.Project,
		assembler: asm,
		recorder:  recorder,
		observer:  observer,
		outputDir: outputDir,
		stages:    stages,
	}, nil
}

// Run executes one full build. The returned report is always non-nil; the
// error is the first fatal phase error, if any.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	names := make([]string, len(b.stages))
	for i, st := range b.stages {
		names[i] = st.String()
	}

	bs := &BuildState{
		ID:        uuid.NewString(),
		Project:   b.project,
		Assembler: b.assembler,
		OutputDir: b.outputDir,
		Stages:    b.stages,
		Resolved:  make(map[stage.Stage]assemble.Resolved, len(b.stages)),
		Report:    NewReport(uuid.NewString(), names),
		Recorder:  b.recorder,
		Observer:  b.observer,
	}
	bs.Report.BuildID = bs.ID

	ctx = observability.WithBuildID(ctx, bs.ID)
	observability.InfoContext(ctx, "Build started",
		slog.String("stages", strings.Join(names, ",")),
		logfields.Path(bs.OutputDir))

	assets, pages := false, false
	for _, st := range b.stages {
		if st.RendersHTML() {
			pages = true
		} else {
			assets = true
		}
	}

	plan := NewPlan().
		Add(PhasePrepareOutput, b.prepareOutput).
		Add(PhaseAssembleConfigs, b.assembleConfigs).
		Add(PhaseEmitConfigs, b.emitConfigs).
		AddIf(assets, PhaseCompileAssets, b.compileAssets).
		AddIf(pages, PhaseCompilePages, b.compilePages).
		AddIf(bs.hasStage(stage.BuildHTML), PhasePostProcess, b.postProcess).
		Add(PhaseWriteReport, b.writeReport).
		Build()

	runErr := RunPhases(ctx, bs, plan)

	if bs.Report.End.IsZero() {
		bs.Report.Finish()
	}
	bs.Report.DeriveOutcome()

	if runErr != nil {
		// Leave an artifact behind for failed runs too.
		if perr := bs.Report.Persist(bs.ArtifactDir()); perr != nil {
			slog.Warn("Could not persist report for failed build", logfields.Error(perr))
		}
	}

	if bs.Observer != nil {
		bs.Observer.OnBuildComplete(bs.Report)
	}

	observability.InfoContext(ctx, "Build finished",
		logfields.Outcome(string(bs.Report.Outcome)),
		logfields.DurationMS(float64(bs.Report.End.Sub(bs.Report.Start).Milliseconds())))

	return bs.Report, runErr
}

func (b *Builder) prepareOutput(_ context.Context, bs *BuildState) error {
	if err := os.MkdirAll(bs.OutputDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("dir", bs.OutputDir).Build()
	}
	if err := os.MkdirAll(bs.ArtifactDir(), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create artifact directory").
			WithContext("dir", bs.ArtifactDir()).Build()
	}
	return nil
}

func (b *Builder) assembleConfigs(ctx context.Context, bs *BuildState) error {
	for _, st := range bs.Stages {
		// Hooks receive this context, so stage and build ID are available
		// to them through observability.GetContext.
		sctx := observability.WithStage(ctx, st.String())

		t0 := time.Now()
		res, err := bs.Assembler.Assemble(sctx, st)
		bs.Recorder.ObserveAssemblyDuration(st.String(), time.Since(t0))

		if err != nil {
			bs.Recorder.IncStageOutcome(st.String(), false)
			var de *hooks.DispatchError
			if stderrors.As(err, &de) {
				bs.Recorder.IncHookDispatch(de.Hook, false)
				if stderrors.Is(err, hooks.ErrActionConflict) {
					bs.Recorder.IncActionConflict(st.String())
				}
			}
			return err
		}

		bs.Recorder.IncStageOutcome(st.String(), true)
		bs.Recorder.IncCacheLookup(res.FromCache)
		if res.FromCache {
			bs.Report.CacheHits++
		} else {
			for _, name := range bs.Assembler.Dispatcher().Names() {
				bs.Report.HookInvocations[name]++
				bs.Recorder.IncHookDispatch(name, true)
			}
		}

		bs.Resolved[st] = res
		bs.Report.ConfigHashes[st.String()] = res.Hash
	}
	return nil
}

func (b *Builder) emitConfigs(_ context.Context, bs *BuildState) error {
	for _, st := range bs.Stages {
		res, ok := bs.Resolved[st]
		if !ok {
			return fmt.Errorf("no resolved configuration for stage %s", st)
		}
		if _, err := assemble.WriteStageConfig(bs.ArtifactDir(), res); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) compileAssets(ctx context.Context, bs *BuildState) error {
	var warn error
	for _, st := range bs.Stages {
		if st.RendersHTML() {
			continue
		}
		res, ok := bs.Resolved[st]
		if !ok {
			continue
		}

		result, err := compile.Assets(ctx, bs.Project.Paths.Assets, bs.OutputDir, res.Config)
		if err != nil {
			return err
		}

		bs.Manifest = result.Manifest
		bs.Report.EmittedAssets += len(result.Emitted)

		if len(result.Violations) > 0 {
			be := &compile.BudgetError{Violations: result.Violations}
			if res.Config.Performance.Hints == "error" {
				return NewFatalPhaseError(PhaseCompileAssets, be)
			}
			warn = NewWarnPhaseError(PhaseCompileAssets, be)
		}
	}
	return warn
}

func (b *Builder) compilePages(ctx context.Context, bs *BuildState) error {
	for _, st := range bs.Stages {
		if !st.RendersHTML() {
			continue
		}
		res, ok := bs.Resolved[st]
		if !ok {
			continue
		}

		result, err := compile.Pages(ctx, bs.Project.Paths.Content, bs.OutputDir, res.Config)
		if err != nil {
			return err
		}

		bs.Report.RenderedPages += len(result.Rendered)
		bs.Report.SkippedDrafts += result.Drafts
	}
	return nil
}

func (b *Builder) postProcess(ctx context.Context, bs *BuildState) error {
	res, ok := bs.Resolved[stage.BuildHTML]
	if !ok {
		return nil
	}

	manifest := bs.Manifest
	if len(manifest) == 0 {
		// HTML-only run: pick up the manifest a previous asset build left.
		loaded, err := compile.LoadManifest(bs.OutputDir, res.Config)
		if err != nil {
			return NewWarnPhaseError(PhasePostProcess, err)
		}
		manifest = loaded
	}
	if len(manifest) == 0 {
		slog.Debug("No asset manifest, skipping reference rewrite")
		return nil
	}

	count, err := compile.RewriteAssetRefs(ctx, bs.OutputDir, res.Config.Output.PublicPath, manifest)
	if err != nil {
		return err
	}
	bs.Report.RewrittenRefs = count
	return nil
}

func (b *Builder) writeReport(_ context.Context, bs *BuildState) error {
	if err := bs.Report.Persist(bs.ArtifactDir()); err != nil {
		return NewWarnPhaseError(PhaseWriteReport, err)
	}
	return nil
}
