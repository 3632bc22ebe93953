// Package logging holds the zerolog conventions used across poolflow.
//
// Components accept an optional *zerolog.Logger in their Config. A nil
// logger means logging is disabled.
package logging

import (
	"github.com/rs/zerolog"
)

// OrNop dereferences l, falling back to a disabled logger when l is nil.
func OrNop(l *zerolog.Logger) zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return *l
}

// Component returns a child logger tagged with the component kind and instance name.
func Component(l zerolog.Logger, component, name string) zerolog.Logger {
	ctx := l.With().Str("component", component)
	if name != "" {
		ctx = ctx.Str("name", name)
	}
	return ctx.Logger()
}
