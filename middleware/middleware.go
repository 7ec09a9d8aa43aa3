package middleware

import (
	"context"
	"strings"

	"github.com/reoring/ormvalues"
)

// DefaultParam is the query parameter the framework adapters read the output
// mode from (?values=dedup).
const DefaultParam = "values"

// Mode selects how model instances are rendered in responses.
type Mode uint8

const (
	// ModePlain renders every field, as ormvalues.Extract does.
	ModePlain Mode = iota
	// ModeDedup drops redundant keys, as ormvalues.ExtractDedup does.
	ModeDedup
)

func (m Mode) String() string {
	if m == ModeDedup {
		return "dedup"
	}
	return "plain"
}

// ParseMode accepts "", "plain", "raw", "dedup" and "compact" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "raw":
		return ModePlain, nil
	case "dedup", "compact":
		return ModeDedup, nil
	}
	return ModePlain, ormvalues.Issues{ormvalues.Root().Field(DefaultParam).Issue(ormvalues.CodeInvalidMode, "key", s)}
}

// ctxKeyMode is a typed context key for the negotiated Mode.
type ctxKeyMode struct{}

// ContextWithMode attaches m to the context.
func ContextWithMode(ctx context.Context, m Mode) context.Context {
	return context.WithValue(ctx, ctxKeyMode{}, m)
}

// ModeFromContext retrieves the Mode attached by ContextWithMode.
func ModeFromContext(ctx context.Context) (Mode, bool) {
	m, ok := ctx.Value(ctxKeyMode{}).(Mode)
	return m, ok
}

// Render extracts v in the mode carried by ctx, ModePlain when none is set.
func Render(ctx context.Context, v any, opts ...ormvalues.ExtractOpt) any {
	if m, _ := ModeFromContext(ctx); m == ModeDedup {
		return ormvalues.ExtractDedup(v, opts...)
	}
	return ormvalues.Extract(v, opts...)
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []ormvalues.Issue) map[string]any {
	return map[string]any{"issues": issues}
}
