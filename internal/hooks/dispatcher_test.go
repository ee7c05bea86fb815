package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/bundler"
	"git.home.luguber.info/inful/sitebuilder/internal/factory"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(factory.NewDefaultLoaders(), factory.NewDefaultPlugins())
}

func baseConfig() bundler.Config {
	return bundler.Config{
		Mode:    bundler.ModeDevelopment,
		Entries: map[string]string{"pages": "content"},
		Output:  bundler.Output{Dir: "public"},
		Module: bundler.Module{Rules: []bundler.Rule{
			{Test: `\.md$`, Use: []bundler.LoaderUse{{Loader: "markdown"}}},
		}},
	}
}

func TestDispatch_InvokesHooksExactlyOnceInOrder(t *testing.T) {
	d := newTestDispatcher(t)

	var calls []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		require.NoError(t, d.RegisterFunc(name, func(hc *Context) error {
			calls = append(calls, name)
			return nil
		}))
	}

	_, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestDispatch_OncePerStage(t *testing.T) {
	d := newTestDispatcher(t)

	counts := map[stage.Stage]int{}
	require.NoError(t, d.RegisterFunc("counter", func(hc *Context) error {
		counts[hc.Stage()]++
		return nil
	}))

	for _, st := range stage.All() {
		_, err := d.Dispatch(context.Background(), st, baseConfig())
		require.NoError(t, err)
	}

	for _, st := range stage.All() {
		require.Equal(t, 1, counts[st], "stage %s", st)
	}
}

func TestDispatch_MergesAccumulateAcrossHooks(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("css-rule", func(hc *Context) error {
		css, err := hc.Loaders().Get(factory.LoaderCSS)
		if err != nil {
			return err
		}
		return hc.SetBundlerConfig(bundler.Config{
			Module: bundler.Module{Rules: []bundler.Rule{
				{Test: `\.css$`, Use: []bundler.LoaderUse{css}},
			}},
		})
	}))
	require.NoError(t, d.RegisterFunc("sees-previous", func(hc *Context) error {
		rules := hc.Rules()
		if len(rules) != 2 {
			return errors.New("expected earlier merge to be visible")
		}
		return hc.SetBundlerConfig(bundler.Config{
			Module: bundler.Module{Rules: []bundler.Rule{
				{Test: `\.svg$`, Use: []bundler.LoaderUse{{Loader: "files"}}},
			}},
		})
	}))

	out, err := d.Dispatch(context.Background(), stage.BuildAssets, baseConfig())
	require.NoError(t, err)

	require.Len(t, out.Module.Rules, 3)
	require.Equal(t, `\.md$`, out.Module.Rules[0].Test)
	require.Equal(t, `\.css$`, out.Module.Rules[1].Test)
	require.Equal(t, `\.svg$`, out.Module.Rules[2].Test)
}

func TestDispatch_ScalarOverrideLastWins(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("a", func(hc *Context) error {
		return hc.SetBundlerConfig(bundler.Config{Devtool: "source-map"})
	}))
	require.NoError(t, d.RegisterFunc("b", func(hc *Context) error {
		return hc.SetBundlerConfig(bundler.Config{Devtool: "none"})
	}))

	out, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.NoError(t, err)
	require.Equal(t, "none", out.Devtool)
	require.Equal(t, bundler.ModeDevelopment, out.Mode)
}

func TestDispatch_DuplicateFragments_KeepBoth(t *testing.T) {
	d := newTestDispatcher(t)

	fragment := bundler.Config{
		Module: bundler.Module{Rules: []bundler.Rule{
			{Test: `\.yaml$`, Use: []bundler.LoaderUse{{Loader: "files"}}},
		}},
	}
	require.NoError(t, d.Register(NewFragmentHook("once", fragment)))
	require.NoError(t, d.Register(NewFragmentHook("twice", fragment)))

	out, err := d.Dispatch(context.Background(), stage.BuildAssets, bundler.Config{})
	require.NoError(t, err)
	require.Len(t, out.Module.Rules, 2)
	require.Equal(t, out.Module.Rules[0], out.Module.Rules[1])
}

func TestDispatch_ReplaceAdoptsValueWholesale(t *testing.T) {
	d := newTestDispatcher(t)

	replacement := bundler.Config{
		Mode:    bundler.ModeProduction,
		Entries: map[string]string{"app": "assets/app.js"},
		Output:  bundler.Output{Dir: "dist"},
	}
	require.NoError(t, d.RegisterFunc("replacer", func(hc *Context) error {
		return hc.ReplaceBundlerConfig(replacement)
	}))

	out, err := d.Dispatch(context.Background(), stage.BuildAssets, baseConfig())
	require.NoError(t, err)

	// Nothing of the base survives, including its rules.
	require.Equal(t, replacement, out)
	require.Empty(t, out.Module.Rules)
}

func TestDispatch_ReplaceMissingRequiredKeys_ValidationError(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("bad-replace", func(hc *Context) error {
		return hc.ReplaceBundlerConfig(bundler.Config{Mode: bundler.ModeProduction})
	}))

	invoked := false
	require.NoError(t, d.RegisterFunc("after", func(hc *Context) error {
		invoked = true
		return nil
	}))

	_, err := d.Dispatch(context.Background(), stage.BuildAssets, baseConfig())
	require.Error(t, err)

	var ve *bundler.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Missing, "entries")
	require.Contains(t, ve.Missing, "output.dir")

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "bad-replace", de.Hook)

	require.False(t, invoked, "hooks after the failure must not run")
}

func TestDispatch_SecondAction_SameInvocation_Conflict(t *testing.T) {
	tests := []struct {
		name string
		fn   func(hc *Context) error
	}{
		{"merge then replace", func(hc *Context) error {
			if err := hc.SetBundlerConfig(bundler.Config{Devtool: "none"}); err != nil {
				return err
			}
			return hc.ReplaceBundlerConfig(baseConfig())
		}},
		{"merge then merge", func(hc *Context) error {
			if err := hc.SetBundlerConfig(bundler.Config{Devtool: "none"}); err != nil {
				return err
			}
			return hc.SetBundlerConfig(bundler.Config{Devtool: "source-map"})
		}},
		{"replace then merge", func(hc *Context) error {
			if err := hc.ReplaceBundlerConfig(baseConfig()); err != nil {
				return err
			}
			return hc.SetBundlerConfig(bundler.Config{Devtool: "none"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t)
			require.NoError(t, d.RegisterFunc("conflicting", tt.fn))

			_, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
			require.ErrorIs(t, err, ErrActionConflict)

			var ue *UsageError
			require.ErrorAs(t, err, &ue)
			require.Equal(t, "conflicting", ue.Hook)
			require.Equal(t, stage.Develop, ue.Stage)
		})
	}
}

func TestDispatch_SwallowedViolationStillAborts(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("swallows", func(hc *Context) error {
		_ = hc.SetBundlerConfig(bundler.Config{Devtool: "none"})
		_ = hc.SetBundlerConfig(bundler.Config{Devtool: "source-map"})
		return nil
	}))

	_, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.ErrorIs(t, err, ErrActionConflict)
}

func TestDispatch_SeparateHooksMayEachAct(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("a", func(hc *Context) error {
		return hc.SetBundlerConfig(bundler.Config{Devtool: "source-map"})
	}))
	require.NoError(t, d.RegisterFunc("b", func(hc *Context) error {
		return hc.SetBundlerConfig(bundler.Config{Performance: bundler.Performance{Hints: "warning"}})
	}))

	out, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.NoError(t, err)
	require.Equal(t, "source-map", out.Devtool)
	require.Equal(t, "warning", out.Performance.Hints)
}

func TestDispatch_HookErrorAbortsRemaining(t *testing.T) {
	d := newTestDispatcher(t)

	boom := errors.New("boom")
	require.NoError(t, d.RegisterFunc("fails", func(hc *Context) error { return boom }))

	invoked := false
	require.NoError(t, d.RegisterFunc("after", func(hc *Context) error {
		invoked = true
		return nil
	}))

	_, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.ErrorIs(t, err, boom)

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "fails", de.Hook)
	require.Equal(t, stage.Develop, de.Stage)

	require.False(t, invoked)
}

func TestDispatch_UnknownLoader_NotFoundPropagates(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("wants-sass", func(hc *Context) error {
		_, err := hc.Loaders().Get("sass")
		return err
	}))

	_, err := d.Dispatch(context.Background(), stage.Develop, baseConfig())
	require.Error(t, err)

	var nfe *factory.NotFoundError
	require.ErrorAs(t, err, &nfe)
	require.Equal(t, "sass", nfe.Name)
}

func TestDispatch_NoHooks_ReturnsIsolatedBase(t *testing.T) {
	d := newTestDispatcher(t)

	base := baseConfig()
	out, err := d.Dispatch(context.Background(), stage.Develop, base)
	require.NoError(t, err)
	require.Equal(t, base, out)

	out.Entries["pages"] = "mutated"
	require.Equal(t, "content", base.Entries["pages"])
}

func TestDispatch_CanceledContext_Aborts(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("never-runs", func(hc *Context) error {
		t.Fatal("hook must not run after cancellation")
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Dispatch(ctx, stage.Develop, baseConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestDispatch_StageBoundFactories(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("styles", func(hc *Context) error {
		use, err := hc.Loaders().Get(factory.LoaderStyleExtract)
		if err != nil {
			return err
		}
		return hc.SetBundlerConfig(bundler.Config{
			Module: bundler.Module{Rules: []bundler.Rule{
				{Test: `\.css$`, Use: []bundler.LoaderUse{use}},
			}},
		})
	}))

	dev, err := d.Dispatch(context.Background(), stage.Develop, bundler.Config{})
	require.NoError(t, err)
	require.Equal(t, factory.LoaderStyleInline, dev.Module.Rules[0].Use[0].Loader)

	prod, err := d.Dispatch(context.Background(), stage.BuildAssets, bundler.Config{})
	require.NoError(t, err)
	require.Equal(t, factory.LoaderStyleExtract, prod.Module.Rules[0].Use[0].Loader)
}

func TestRegister_DuplicateName_Rejected(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("theme", func(hc *Context) error { return nil }))
	err := d.RegisterFunc("theme", func(hc *Context) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestRegister_NilAndUnnamed_Rejected(t *testing.T) {
	d := newTestDispatcher(t)

	require.Error(t, d.Register(nil))
	require.Error(t, d.RegisterFunc("", func(hc *Context) error { return nil }))
}

func TestNames_ReflectDispatchOrder(t *testing.T) {
	d := newTestDispatcher(t)

	require.NoError(t, d.RegisterFunc("z", func(hc *Context) error { return nil }))
	require.NoError(t, d.RegisterFunc("a", func(hc *Context) error { return nil }))

	require.Equal(t, []string{"z", "a"}, d.Names())
	require.Equal(t, 2, d.Len())
}
