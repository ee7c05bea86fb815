// Package assemble resolves bundler configurations per compilation stage:
// it seeds stage-appropriate defaults from the project config, runs every
// registered hook over a working copy, and finalizes the survivor
// (mode fallback, validation, content hash).
package assemble

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/cache"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/hooks"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// FragmentHookName is the hook name under which the project file's bundler
// fragment participates in dispatch.
const FragmentHookName = "project-config"

// Resolved is the finalized outcome of assembling one stage.
type Resolved struct {
	Stage     stage.Stage
	Config    bundler.Config
	Hash      string
	FromCache bool
}

// Assembler resolves per-stage bundler configurations for one project.
type Assembler struct {
	project    *config.Config
	dispatcher *hooks.Dispatcher
	cache      *cache.Cache
}

// New creates an assembler over the given dispatcher. When the project file
// carries a bundler fragment it is registered as the final hook, so
// file-based overrides win over code hooks registered earlier. The cache is
// optional; nil disables config reuse.
func New(project *config.Config, dispatcher *hooks.Dispatcher, cc *cache.Cache) (*Assembler, error) {
	if dispatcher == nil {
		dispatcher = hooks.NewDispatcher(nil, nil)
	}
	if !project.Bundler.IsZero() {
		if err := dispatcher.Register(hooks.NewFragmentHook(FragmentHookName, project.Bundler)); err != nil {
			return nil, fmt.Errorf("register project config fragment: %w", err)
		}
	}
	return &Assembler{project: project, dispatcher: dispatcher, cache: cc}, nil
}

// Dispatcher returns the hook dispatcher assemblies run through.
func (a *Assembler) Dispatcher() *hooks.Dispatcher { return a.dispatcher }

// Assemble resolves the configuration for one stage. A cached result is
// returned as-is when neither the project config nor the hook set changed
// since it was stored.
func (a *Assembler) Assemble(ctx context.Context, st stage.Stage) (Resolved, error) {
	key := cache.Key{Stage: st, Fingerprint: a.fingerprint()}
	if cached, ok := a.cache.Get(key); ok {
		slog.Debug("Reusing cached stage configuration", logfields.Stage(st.String()))
		return Resolved{Stage: st, Config: cached, Hash: cached.Hash(), FromCache: true}, nil
	}

	base, err := a.BaseConfig(st)
	if err != nil {
		return Resolved{}, err
	}

	resolved, err := a.dispatcher.Dispatch(ctx, st, base)
	if err != nil {
		return Resolved{}, err
	}

	if err := finalize(&resolved, st); err != nil {
		return Resolved{}, err
	}

	a.cache.Put(key, resolved)

	hash := resolved.Hash()
	slog.Debug("Assembled stage configuration",
		logfields.Stage(st.String()), logfields.ConfigHash(hash))
	return Resolved{Stage: st, Config: resolved, Hash: hash}, nil
}

// finalize seals a dispatched configuration: the mode falls back to the
// stage's natural one when no hook chose it, then the result must validate.
func finalize(cfg *bundler.Config, st stage.Stage) error {
	if cfg.Mode == "" {
		if st.IsProduction() {
			cfg.Mode = bundler.ModeProduction
		} else {
			cfg.Mode = bundler.ModeDevelopment
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("finalize %s configuration: %w", st, err)
	}
	return nil
}

// fingerprint keys the cache. Anything that can change an assembly result
// feeds it, so a stale entry is never served.
func (a *Assembler) fingerprint() string {
	h := sha256.New()
	h.Write([]byte(a.project.Snapshot()))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(a.dispatcher.Names(), "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
