package reqid

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
)

type ctxKey struct{}

var prefix string
var reqid uint64

func init() {
	hostname, err := os.Hostname()
	if hostname == "" || err != nil {
		hostname = "localhost"
	}

	prefix = hostname
}

// NextRequestID generates the next request ID in the sequence.
func NextRequestID() string {
	return fmt.Sprintf("%s-%09d", prefix, atomic.AddUint64(&reqid, 1))
}

// WithRequestID stamps the context with a fresh request ID.
func WithRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, NextRequestID())
}

// FromContext returns the request ID carried by the context, or the empty
// string if the context was never stamped.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}
