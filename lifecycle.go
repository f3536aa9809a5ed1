package backupq

import "context"

// Start launches the scan timer, subscribes to the connectivity source and
// requests an immediate pass so uploads left over from a previous run are
// retried promptly. It is idempotent and non-blocking.
func (q *Queue) Start(ctx context.Context) {
	q.lifeMu.Lock()
	if q.cfg.connectivity != nil && q.unsubscribe == nil {
		// Subscribe before reading so a flip in between is not lost.
		q.unsubscribe = q.cfg.connectivity.Subscribe(q)
		q.setOnline(q.cfg.connectivity.Online())
	}
	q.lifeMu.Unlock()

	q.rt.Start(ctx)
	q.rt.Kick()
}

// Stop cancels the scan timer and waits for the current cycle to finish.
// An upload in flight is not aborted and its outcome is applied.
func (q *Queue) Stop() {
	q.rt.Stop()

	q.lifeMu.Lock()
	if q.unsubscribe != nil {
		q.unsubscribe()
		q.unsubscribe = nil
	}
	q.lifeMu.Unlock()
}

// OnOnline marks the host online and, if the queue is running, triggers a
// processing pass without waiting for the next tick.
func (q *Queue) OnOnline() {
	q.setOnline(true)
	q.rt.Kick()
}

// OnOffline marks the host offline. The queue is left untouched; cycles are
// skipped until OnOnline.
func (q *Queue) OnOffline() {
	q.setOnline(false)
}

func (q *Queue) setOnline(online bool) {
	q.mu.Lock()
	changed := q.online != online
	q.online = online
	q.mu.Unlock()
	q.m.online.Set(boolGauge(online))
	if !changed {
		return
	}
	if online {
		q.log.Infof("connectivity restored; resuming uploads")
	} else {
		q.log.Warnf("connectivity lost; pausing uploads")
	}
}
