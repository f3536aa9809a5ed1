package backupq

import (
	"context"

	"github.com/UniQw/backupq/internal/hctx"
)

// Attempt identifies the upload attempt an Uploader is serving.
type Attempt struct {
	// UploadID is the ID of the queued upload.
	UploadID string
	// Number is 1 for the first attempt.
	Number int
}

// AttemptFromContext returns the attempt metadata the Queue attached to ctx.
// It reports false when ctx did not come from the Queue.
func AttemptFromContext(ctx context.Context) (Attempt, bool) {
	a, ok := hctx.From(ctx)
	if !ok {
		return Attempt{}, false
	}
	return Attempt{UploadID: a.UploadID, Number: a.Number}, true
}

func withAttempt(ctx context.Context, id string, n int) context.Context {
	return hctx.WithAttempt(ctx, hctx.Attempt{UploadID: id, Number: n})
}
