package logger

import "walletview/internal/app/port"

// slogAdapter implements port.Logger on top of the package-level functions.
type slogAdapter struct {
	args []any
}

// Named returns a port.Logger that tags every record with component=name.
func Named(name string) port.Logger {
	return &slogAdapter{args: []any{"component", name}}
}

func (a *slogAdapter) with(args []any) []any {
	if len(a.args) == 0 {
		return args
	}
	return append(append([]any{}, a.args...), args...)
}

// Info logs an informational message.
func (a *slogAdapter) Info(msg string, args ...any) {
	Info(msg, a.with(args)...)
}

// Debug logs a debug message.
func (a *slogAdapter) Debug(msg string, args ...any) {
	Debug(msg, a.with(args)...)
}

// Warn logs a warning.
func (a *slogAdapter) Warn(msg string, args ...any) {
	Warn(msg, a.with(args)...)
}

// Error logs an error.
func (a *slogAdapter) Error(msg string, args ...any) {
	Error(msg, a.with(args)...)
}
