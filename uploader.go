package backupq

import (
	"context"
	"time"
)

// Result is the outcome of a single upload attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Uploader performs exactly one upload attempt. It must not retry; all retry
// policy lives in the Queue. Implementations report failures through Result
// rather than panicking.
type Uploader interface {
	Upload(ctx context.Context, a Artifact, d Destination) Result
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, a Artifact, d Destination) Result

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, a Artifact, d Destination) Result {
	return f(ctx, a, d)
}

// Middleware wraps an Uploader to provide cross-cutting concerns.
type Middleware func(Uploader) Uploader

// Chain wraps u with mws. Middlewares run in the order given: the first one is outermost.
func Chain(u Uploader, mws ...Middleware) Uploader {
	for i := len(mws) - 1; i >= 0; i-- {
		u = mws[i](u)
	}
	return u
}

// LoggingMiddleware logs the result and duration of each attempt.
func LoggingMiddleware(l Logger) Middleware {
	return func(next Uploader) Uploader {
		return UploaderFunc(func(ctx context.Context, a Artifact, d Destination) Result {
			start := time.Now()
			res := next.Upload(ctx, a, d)
			at, _ := AttemptFromContext(ctx)
			if res.Success {
				l.Debugf("upload ok: id=%s attempt=%d name=%s dur=%s", at.UploadID, at.Number, a.Name, time.Since(start))
			} else {
				l.Warnf("upload failed: id=%s attempt=%d name=%s dur=%s msg=%s", at.UploadID, at.Number, a.Name, time.Since(start), res.Message)
			}
			return res
		})
	}
}
