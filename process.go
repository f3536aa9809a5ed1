package backupq

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// ProcessOnce runs one processing cycle: every due upload is attempted in
// NextRetryAt order, one at a time. It reports false when the cycle was
// skipped because another cycle is running, the host is offline or the
// queue is empty.
//
// Errors and panics never escape a cycle.
func (q *Queue) ProcessOnce(ctx context.Context) (ran bool) {
	if !q.processing.CompareAndSwap(false, true) {
		return false
	}
	defer q.processing.Store(false)
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorf("processing cycle panicked: %v", r)
		}
	}()

	q.mu.Lock()
	if !q.online || len(q.items) == 0 {
		q.mu.Unlock()
		return false
	}
	now := q.clock.Now()
	q.lastCheckedAt = now
	due := make([]selected, 0, len(q.items))
	for _, it := range q.items {
		if !it.NextRetryAt.After(now) && it.Attempts < it.Destination.MaxRetries {
			due = append(due, selected{ref: it, snap: it.clone()})
		}
	}
	q.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].snap.NextRetryAt.Before(due[j].snap.NextRetryAt)
	})

	if len(due) > 0 {
		q.log.Debugf("processing cycle: due=%d", len(due))
	}
	for i := range due {
		// Stop cancels ctx; the upload already in flight still completes below.
		if ctx.Err() != nil {
			break
		}
		if !q.isOnline() {
			q.log.Infof("went offline mid-cycle; %d uploads deferred", len(due)-i)
			break
		}
		q.attempt(ctx, due[i])
	}
	return true
}

// selected pairs a queued item with the copy taken when the cycle picked it.
// Outcomes are applied to ref only, so an ID reused after Remove is left alone.
type selected struct {
	ref  *QueuedUpload
	snap QueuedUpload
}

// attempt uploads one item and applies the outcome to the queue.
func (q *Queue) attempt(ctx context.Context, sel selected) {
	it := sel.snap
	// Detached from ctx so Stop lets the attempt and its bookkeeping finish.
	actx := context.WithoutCancel(ctx)
	uctx := withAttempt(actx, it.ID, it.Attempts+1)
	if q.cfg.uploadTimeout > 0 {
		var cancel context.CancelFunc
		uctx, cancel = context.WithTimeout(uctx, q.cfg.uploadTimeout)
		defer cancel()
	}

	start := time.Now()
	res := q.safeUpload(uctx, it.Artifact, it.Destination)
	q.m.uploadDuration.Observe(time.Since(start).Seconds())
	now := q.clock.Now()

	if res.Success {
		q.mu.Lock()
		if i := q.positionLocked(sel.ref); i >= 0 {
			q.removeAtLocked(i)
		}
		n := len(q.items)
		q.mu.Unlock()
		q.m.queueLength.Set(float64(n))
		q.m.attempts.WithLabelValues(resultSuccess).Inc()
		_ = q.persist(actx)

		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("uploaded %s", it.Artifact.Name)
		}
		q.status.Write(actx, OutcomeSuccess, msg, now)
		q.log.Infof("upload succeeded: id=%s name=%s attempt=%d", it.ID, it.Artifact.Name, it.Attempts+1)
		return
	}

	reason := res.Message
	if reason == "" {
		reason = "upload failed"
	}

	q.mu.Lock()
	i := q.positionLocked(sel.ref)
	if i < 0 {
		// removed by Remove/Clear while the upload was in flight
		q.mu.Unlock()
		q.log.Infof("upload failed for an item no longer queued: id=%s err=%s", it.ID, reason)
		return
	}
	cur := q.items[i]
	cur.Attempts++
	cur.LastAttemptAt = now
	cur.LastError = reason
	attempts := cur.Attempts
	terminal := attempts >= cur.Destination.MaxRetries
	var next time.Time
	if terminal {
		q.removeAtLocked(i)
	} else {
		next = q.policy.Next(now, attempts)
		cur.NextRetryAt = next
	}
	n := len(q.items)
	q.mu.Unlock()
	q.m.queueLength.Set(float64(n))
	_ = q.persist(actx)

	if terminal {
		q.m.attempts.WithLabelValues(resultTerminal).Inc()
		q.status.Write(actx, OutcomeFailed, fmt.Sprintf("failed after %d attempts: %s", attempts, reason), now)
		q.log.Errorf("upload dropped: id=%s name=%s attempts=%d err=%s", it.ID, it.Artifact.Name, attempts, reason)
		return
	}
	q.m.attempts.WithLabelValues(resultRetry).Inc()
	q.log.Warnf("upload failed; retrying: id=%s attempt=%d/%d next=%s err=%s",
		it.ID, attempts, it.Destination.MaxRetries, next.Format(time.RFC3339), reason)
}

// safeUpload turns an uploader panic into a failed Result.
func (q *Queue) safeUpload(ctx context.Context, a Artifact, d Destination) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Success: false, Message: fmt.Sprintf("upload panicked: %v", r)}
		}
	}()
	return q.up.Upload(ctx, a, d)
}

func (q *Queue) isOnline() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}
