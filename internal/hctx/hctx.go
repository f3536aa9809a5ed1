package hctx

import "context"

// Attempt holds per-attempt metadata the queue attaches to the context
// passed to an uploader.
type Attempt struct {
	UploadID string
	// Number is 1-based: the first upload attempt is 1.
	Number int
}

type ctxKey struct{}

// WithAttempt returns a child context carrying the given attempt metadata.
func WithAttempt(parent context.Context, a Attempt) context.Context {
	return context.WithValue(parent, ctxKey{}, a)
}

// From extracts the attempt metadata from context if present.
func From(ctx context.Context) (Attempt, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return Attempt{}, false
	}
	a, ok := v.(Attempt)
	return a, ok
}
