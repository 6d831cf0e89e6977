package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeySection    = "section"
	KeyTarget     = "target"
	KeyTheme      = "theme"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyPages      = "pages"
	KeyWarnings   = "warnings"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Theme(t string) slog.Attr         { return slog.String(KeyTheme, t) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Warnings(n int) slog.Attr         { return slog.Int(KeyWarnings, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
