// Package corelog provides the structured logging abstraction used across
// the group messaging client core. It lets every component accept a Logger
// without depending on a concrete logging backend.
package corelog

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logging abstraction every component in this
// module accepts. It allows swapping the backend (slog by default) without
// touching call sites.
type Logger interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	// WithFields returns a new Logger that includes the given structured
	// fields on every subsequent entry.
	WithFields(fields map[string]interface{}) Logger

	// WithContext returns a new Logger that extracts correlation fields
	// (e.g. the tracked agent id) from ctx, if present.
	WithContext(ctx context.Context) Logger
}

type ctxKey struct{}

// ContextWithAgentID attaches an agent id to ctx for WithContext to pick up.
func ContextWithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, agentID)
}

func agentIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

type slogLogger struct {
	base   *slog.Logger
	fields map[string]interface{}
}

// NewDefaultLogger returns the package default: a slog logger writing
// human-readable text to stderr at debug level.
func NewDefaultLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &slogLogger{base: slog.New(handler)}
}

// NewJSONLogger returns a Logger emitting structured JSON lines, useful for
// production deployments that ship logs to a collector.
func NewJSONLogger() Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &slogLogger{base: slog.New(handler)}
}

// NewFromSlog wraps an existing *slog.Logger, for embedders that already
// have one configured.
func NewFromSlog(base *slog.Logger) Logger {
	return &slogLogger{base: base}
}

func (l *slogLogger) args() []interface{} {
	if len(l.fields) == 0 {
		return nil
	}
	out := make([]interface{}, 0, len(l.fields)*2)
	for k, v := range l.fields {
		out = append(out, k, v)
	}
	return out
}

func (l *slogLogger) Error(args ...interface{})                 { l.base.Error(sprint(args...), l.args()...) }
func (l *slogLogger) Errorf(format string, args ...interface{})  { l.base.Error(sprintf(format, args...), l.args()...) }
func (l *slogLogger) Warn(args ...interface{})                   { l.base.Warn(sprint(args...), l.args()...) }
func (l *slogLogger) Warnf(format string, args ...interface{})   { l.base.Warn(sprintf(format, args...), l.args()...) }
func (l *slogLogger) Info(args ...interface{})                   { l.base.Info(sprint(args...), l.args()...) }
func (l *slogLogger) Infof(format string, args ...interface{})   { l.base.Info(sprintf(format, args...), l.args()...) }
func (l *slogLogger) Debug(args ...interface{})                  { l.base.Debug(sprint(args...), l.args()...) }
func (l *slogLogger) Debugf(format string, args ...interface{})  { l.base.Debug(sprintf(format, args...), l.args()...) }

func (l *slogLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &slogLogger{base: l.base, fields: merged}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	if agentID := agentIDFromContext(ctx); agentID != "" {
		return l.WithFields(map[string]interface{}{"agent_id": agentID})
	}
	return l
}
