package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

var CLI struct {
	Config  string           `short:"c" help:"Project configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version information and exit"`

	Build struct {
		Output string   `short:"o" help:"Output directory override"`
		Stage  []string `short:"s" help:"Stage to build (repeatable, overrides configured stages)"`
	} `cmd:"" help:"Assemble stage configurations and compile the site"`

	Inspect struct {
		Stage string `short:"s" required:"" help:"Stage whose resolved configuration to print"`
	} `cmd:"" help:"Print the resolved bundler configuration for one stage"`

	Validate struct{} `cmd:"" help:"Assemble every configured stage without compiling"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`

	Watch struct {
		Output string `short:"o" help:"Output directory override"`
	} `cmd:"" help:"Rebuild whenever the project configuration changes"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sitebuilder"),
		kong.Description("Stage-aware bundler configuration assembler and site compiler."),
		kong.Vars{"version": versionString()},
	)

	// Init must work before a loadable configuration exists.
	if ctx.Command() == "init" {
		setupLogging(config.LoggingConfig{}, CLI.Verbose)
		handleError(runInit(CLI.Config, CLI.Init.Force))
		return
	}

	cfg, err := loadProject(CLI.Config)
	if err != nil {
		setupLogging(config.LoggingConfig{}, CLI.Verbose)
		handleError(err)
		return
	}
	setupLogging(cfg.Logging, CLI.Verbose)

	switch ctx.Command() {
	case "build":
		handleError(runBuild(cfg, CLI.Build.Output, CLI.Build.Stage))
	case "inspect":
		handleError(runInspect(cfg, CLI.Inspect.Stage))
	case "validate":
		handleError(runValidate(cfg))
	case "watch":
		handleError(runWatch(cfg, CLI.Watch.Output))
	}
}

func versionString() string {
	return fmt.Sprintf("sitebuilder %s (commit %s, built %s)",
		version.Version, version.GitCommit, version.BuildTime)
}

// setupLogging installs the default logger. The config file picks level and
// format; --verbose forces debug regardless.
func setupLogging(lc config.LoggingConfig, verbose bool) {
	level := slog.LevelInfo
	switch config.NormalizeLogLevel(string(lc.Level)) {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	// Logs go to stderr so inspect output stays pipeable.
	var handler slog.Handler
	if config.NormalizeLogFormat(string(lc.Format)) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func handleError(err error) {
	if err == nil {
		return
	}
	errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default()).HandleError(classify(err))
}

// classify maps well-known assembly errors onto error categories so the exit
// code reflects what actually failed. Already classified errors pass through.
func classify(err error) error {
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	var (
		ve *bundler.ValidationError
		nf *factory.NotFoundError
		de *hooks.DispatchError
	)
	switch {
	case stderrors.As(err, &ve):
		return errors.WrapError(err, errors.CategoryBundle, "resolved configuration invalid").Build()
	case stderrors.As(err, &nf):
		return errors.WrapError(err, errors.CategoryFactory, "unknown factory reference").Build()
	case stderrors.As(err, &de):
		return errors.WrapError(err, errors.CategoryHooks, "hook dispatch failed").Build()
	}
	return err
}

func loadProject(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "load project configuration").
			WithContext("path", path).Build()
	}
	return cfg, nil
}

func parseStages(names []string) ([]stage.Stage, error) {
	stages := make([]stage.Stage, 0, len(names))
	for _, name := range names {
		st, err := stage.Parse(name)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryValidation, "invalid stage selection").Build()
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func runBuild(cfg *config.Config, outputDir string, stageNames []string) error {
	stages, err := parseStages(stageNames)
	if err != nil {
		return err
	}

	cc, err := cache.New(cfg.Build.CacheSize)
	if err != nil {
		return err
	}

	b, err := build.New(build.Options{
		Project:   cfg,
		Cache:     cc,
		OutputDir: outputDir,
		Stages:    stages,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := b.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	return nil
}

func runInspect(cfg *config.Config, stageName string) error {
	st, err := stage.Parse(stageName)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid stage selection").Build()
	}

	asm, err := assemble.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	res, err := asm.Assemble(context.Background(), st)
	if err != nil {
		return err
	}

	data, err := assemble.MarshalResolved(res)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}

func runValidate(cfg *config.Config) error {
	asm, err := assemble.New(cfg, nil, nil)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, st := range cfg.Build.Stages {
		res, err := asm.Assemble(ctx, st)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", st, res.Hash)
	}

	fmt.Println("configuration valid")
	return nil
}

func runInit(configPath string, force bool) error {
	slog.Info("Writing starter configuration", logfields.Path(configPath), slog.Bool("force", force))
	return config.Init(configPath, force)
}

func runWatch(cfg *config.Config, outputDir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := observability.NewCollector()

	// One cache across rebuilds so unchanged stages resolve without
	// re-running their hooks.
	cc, err := cache.New(cfg.Build.CacheSize)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) {
		// Reload so stage selection and bundler fragments track the file.
		project, err := loadProject(CLI.Config)
		if err != nil {
			slog.Error("Configuration reload failed", logfields.Error(err))
			return
		}

		b, err := build.New(build.Options{
			Project:   project,
			Cache:     cc,
			Recorder:  collector,
			OutputDir: outputDir,
		})
		if err != nil {
			slog.Error("Builder setup failed", logfields.Error(err))
			return
		}

		if _, err := b.Run(ctx); err != nil {
			slog.Error("Build failed", logfields.Error(err))
		}
	}

	w, err := watch.New(watch.Options{
		ConfigPath: CLI.Config,
		Debounce:   cfg.WatchDebounce(),
		OnChange:   rebuild,
	})
	if err != nil {
		return err
	}

	observability.NewLogBuilder(ctx).
		With("config", CLI.Config).
		With("debounce", cfg.WatchDebounce().String()).
		Info("Watch mode started")

	rebuild(ctx)

	if err := w.Run(ctx); err != nil {
		return err
	}

	fmt.Print(collector.Snapshot().Format())
	return nil
}
