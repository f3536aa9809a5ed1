package keys

// Package keys centralizes store key construction.
// It is kept in internal to avoid leaking key formats to public API.

const (
	queueKey  = "backup_retry_queue"
	statusKey = "cloud_upload_status"
)

// Queue returns the key holding the serialized retry queue for a namespace.
func Queue(ns string) string { return prefix(ns) + queueKey }

// Status returns the key holding the last terminal upload outcome.
func Status(ns string) string { return prefix(ns) + statusKey }

// Set holds all precomputed keys for a namespace to avoid repeated concatenations.
type Set struct {
	Queue  string
	Status string
}

// For returns the set of keys used by a queue living in namespace ns.
// An empty namespace yields the bare keys.
func For(ns string) Set {
	p := prefix(ns)
	return Set{
		Queue:  p + queueKey,
		Status: p + statusKey,
	}
}

func prefix(ns string) string {
	if ns == "" {
		return ""
	}
	return ns + ":"
}
