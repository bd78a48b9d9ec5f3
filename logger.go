package account

import "log/slog"

type slogLogger struct {
	l *slog.Logger
}

// NewLogger adapts a slog.Logger to Logger. A nil logger resolves to
// slog.Default at call time.
func NewLogger(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

func defaultLogger() Logger {
	return slogLogger{}
}

func (s slogLogger) logger() *slog.Logger {
	if s.l == nil {
		return slog.Default()
	}
	return s.l
}

func (s slogLogger) Debug(msg string, args ...any) {
	s.logger().Debug(msg, args...)
}

func (s slogLogger) Info(msg string, args ...any) {
	s.logger().Info(msg, args...)
}

func (s slogLogger) Warn(msg string, args ...any) {
	s.logger().Warn(msg, args...)
}

func (s slogLogger) Error(msg string, args ...any) {
	s.logger().Error(msg, args...)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defaultLogger()
	}
	return l
}

// Named returns a child slog logger tagged with the component name.
func Named(l *slog.Logger, name string) Logger {
	if l == nil {
		l = slog.Default()
	}
	return NewLogger(l.With(slog.String("component", name)))
}
