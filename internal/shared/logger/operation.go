package logger

import (
	"context"
	"log/slog"
	"time"
)

// Operation scopes the log lines of one engine operation. Every line it
// emits carries the operation name, the elapsed time and the attributes
// the operation was started with, so a provision or revocation can be
// followed through the log by its opening attributes alone.
type Operation struct {
	log     *Logger
	ctx     context.Context
	name    string
	started time.Time
	attrs   []any
}

// StartOp opens an operation scope. The start line logs at debug; the
// outcome line is the one that matters during normal operation.
func (l *Logger) StartOp(ctx context.Context, name string, args ...any) *Operation {
	op := &Operation{
		log:     l,
		ctx:     ctx,
		name:    name,
		started: time.Now(),
		attrs:   args,
	}
	op.log.WithContext(ctx).Debug("operation started", op.scoped()...)
	return op
}

func (op *Operation) scoped(args ...any) []any {
	attrs := append(
		[]any{
			slog.String("operation", op.name),
			slog.Duration("elapsed", time.Since(op.started)),
		},
		op.attrs...)
	return append(attrs, args...)
}

// Progress logs an intermediate step at debug level.
func (op *Operation) Progress(msg string, args ...any) {
	op.log.WithContext(op.ctx).Debug(msg, op.scoped(args...)...)
}

// Complete logs the successful outcome.
func (op *Operation) Complete(msg string, args ...any) {
	if msg == "" {
		msg = "operation completed"
	}
	op.log.WithContext(op.ctx).Info(msg, op.scoped(args...)...)
}

// Fail logs the failed outcome with the causing error.
func (op *Operation) Fail(err error, args ...any) {
	attrs := append([]any{slog.String("error", err.Error())}, args...)
	op.log.WithContext(op.ctx).Error("operation failed", op.scoped(attrs...)...)
}
