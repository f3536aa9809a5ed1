package backupq

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Encoder defines the interface for queue and status serialization.
type Encoder interface {
	// Encode serializes a value to bytes.
	Encode(any) ([]byte, error)
	// Decode deserializes bytes to a value.
	Decode([]byte, any) error
}

// JSONEncoder is the default implementation of Encoder using JSON.
// It uses standard library for encoding and sonic for decoding.
type JSONEncoder struct{}

// Encode serializes a value to JSON using standard library.
func (*JSONEncoder) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes JSON bytes using sonic.
func (*JSONEncoder) Decode(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// decodeQueue parses a persisted queue. Entries without an ID and repeated
// IDs are dropped; the first occurrence of an ID wins.
func decodeQueue(enc Encoder, raw []byte) ([]*QueuedUpload, error) {
	var recs []QueuedUpload
	if err := enc.Decode(raw, &recs); err != nil {
		return nil, err
	}
	out := make([]*QueuedUpload, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		r := recs[i]
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, &r)
	}
	return out, nil
}

// encodeQueue serializes items in insertion order.
func encodeQueue(enc Encoder, items []QueuedUpload) ([]byte, error) {
	if items == nil {
		items = []QueuedUpload{}
	}
	return enc.Encode(items)
}
