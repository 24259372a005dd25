// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger replaces the logger used by repository instrumentation.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// EnableRepoLogging toggles per-operation repository debug logs.
var EnableRepoLogging = true

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

func (l *RepoLogger) log(ctx context.Context, operation string, attrs []any) {
	if !EnableRepoLogging {
		return
	}
	base := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	logger.DebugContext(ctx, "repository "+operation, append(base, attrs...)...)
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, id string) {
	l.log(ctx, "create", []any{slog.String("id", id)})
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, id string, fields ...string) {
	l.log(ctx, "update", []any{slog.String("id", id), slog.Any("fields", fields)})
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, id string, soft bool) {
	l.log(ctx, "delete", []any{slog.String("id", id), slog.Bool("soft", soft)})
}

// LogError logs a failed repository operation at warn level.
func (l *RepoLogger) LogError(ctx context.Context, operation string, err error) {
	logger.WarnContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
