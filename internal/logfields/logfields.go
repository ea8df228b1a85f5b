package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyModule     = "module"
	KeyMember     = "member"
	KeyPage       = "page"
	KeyDialect    = "dialect"
	KeyTheme      = "theme"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyName       = "name"
	KeyURL        = "url"
	KeyAddr       = "addr"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Member(m string) slog.Attr       { return slog.String(KeyMember, m) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Dialect(d string) slog.Attr      { return slog.String(KeyDialect, d) }
func Theme(t string) slog.Attr        { return slog.String(KeyTheme, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
