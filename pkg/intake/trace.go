package intake

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// TraceID returns the correlation ID Submit attached to ctx, for handlers
// that want to tag their own log lines with the same ID across the
// queue-wait-then-run lifetime of one submission.
func TraceID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(traceIDKey{}).(uuid.UUID)
	return id, ok
}

func withTraceID(ctx context.Context) (context.Context, uuid.UUID) {
	id := uuid.New()
	return context.WithValue(ctx, traceIDKey{}, id), id
}
