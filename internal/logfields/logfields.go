package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyPhase      = "phase"
	KeyHook       = "hook"
	KeyLoader     = "loader"
	KeyPlugin     = "plugin"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyConfigHash = "config_hash"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }
func Loader(name string) slog.Attr    { return slog.String(KeyLoader, name) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ConfigHash(h string) slog.Attr   { return slog.String(KeyConfigHash, h) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
