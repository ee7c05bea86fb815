package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// ConfigPath is the project configuration file to watch.
	ConfigPath string
	// Debounce is the quiet window after the last change before OnChange runs.
	Debounce time.Duration
	// OnChange runs after the debounce window expires. Invocations are
	// serialized; events arriving during a run schedule the next one.
	OnChange func(ctx context.Context)
}

// Watcher re-runs a callback whenever the watched configuration file changes.
type Watcher struct {
	configPath string
	debounce   time.Duration
	onChange   func(ctx context.Context)
	fsw        *fsnotify.Watcher
}

// New creates a watcher for the given configuration file.
func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange callback is required")
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		configPath: absPath,
		debounce:   debounce,
		onChange:   opts.OnChange,
		fsw:        fsw,
	}, nil
}

// Run blocks processing file events until ctx is canceled. Editors usually
// replace files rather than writing them in place, so the parent directory
// is watched and events are filtered by base name.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	configDir := filepath.Dir(w.configPath)
	if err := w.fsw.Add(configDir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", configDir, err)
	}

	slog.Info("Watching project configuration",
		logfields.Path(w.configPath),
		slog.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	resetTimer := func(t *time.Timer, after time.Duration) {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(after)
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Remove != 0 {
				slog.Warn("Configuration file removed", slog.String("file", event.Name))
				continue
			}
			if !isTrigger(event.Op) {
				continue
			}
			slog.Debug("Configuration change detected",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))
			resetTimer(timer, w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))

		case <-timer.C:
			w.onChange(ctx)
		}
	}
}

// relevant reports whether the event refers to the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	return filepath.Base(event.Name) == filepath.Base(w.configPath)
}

// isTrigger reports whether the operation should schedule a rebuild.
func isTrigger(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
