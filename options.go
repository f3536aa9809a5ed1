package backupq

import "time"

// Clock supplies the current time. Tests inject a fake to drive backoff.
type Clock interface {
	Now() time.Time
}

const (
	defaultInterval       = 10 * time.Second
	defaultBaseDelay      = 5 * time.Second
	defaultMaxDelay       = 300 * time.Second
	defaultMaxRetries     = 3
	defaultMaxPayloadSize = 25 << 20 // 25 MiB
)

type options struct {
	interval       time.Duration
	baseDelay      time.Duration
	maxDelay       time.Duration
	maxRetries     int
	maxPayloadSize int64
	uploadTimeout  time.Duration
	namespace      string
	clock          Clock
	logger         Logger
	encoder        Encoder
	connectivity   Connectivity
}

// Option configures a Queue at construction time.
type Option func(*options)

// WithInterval sets the period of the scan timer.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithBaseDelay sets the delay after the first failed attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(o *options) {
		o.baseDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(o *options) {
		o.maxDelay = d
	}
}

// WithDefaultMaxRetries sets the attempt ceiling used when a Destination leaves MaxRetries at zero.
func WithDefaultMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithMaxPayloadSize limits the artifact size accepted by Enqueue.
// Zero or negative disables the limit.
func WithMaxPayloadSize(n int64) Option {
	return func(o *options) {
		o.maxPayloadSize = n
	}
}

// WithUploadTimeout bounds a single upload attempt. Zero leaves it to the uploader.
func WithUploadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.uploadTimeout = d
	}
}

// WithNamespace prefixes the store keys so several queues can share one store.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger. Default is FmtLogger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEncoder replaces the encoder used to persist queue and status records.
func WithEncoder(e Encoder) Option {
	return func(o *options) {
		if e != nil {
			o.encoder = e
		}
	}
}

// WithConnectivity sets the online/offline signal source. Without one the
// queue assumes it is online until OnOffline is called.
func WithConnectivity(c Connectivity) Option {
	return func(o *options) {
		o.connectivity = c
	}
}

type enqueueOptions struct {
	id string
}

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

// UploadID sets a custom ID for the queued upload. If not provided, a random UUID will be generated.
func UploadID(id string) EnqueueOption {
	return func(o *enqueueOptions) {
		o.id = id
	}
}
