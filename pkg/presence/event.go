package presence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MaxEventSize is the largest event payload DecodeEvent accepts (1MB).
const MaxEventSize = 1 << 20

// Event is a validated heartbeat or leave record. Fields hold the raw
// string form of the payload; the store normalizes them.
type Event struct {
	UID      string
	Path     string
	ClientID string

	// HasPath reports whether the payload carried a path field at all.
	HasPath bool
}

// DecodeEvent reads a JSON object from r and converts it into an Event.
//
// Anything other than a JSON object (arrays, null, scalars, malformed or
// oversized input) yields ErrInvalidBody. Field values are never rejected:
// strings are used verbatim, null becomes "", and any other JSON value is
// taken as its compact JSON text.
func DecodeEvent(r io.Reader) (Event, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxEventSize+1))
	if err != nil {
		return Event{}, fmt.Errorf("%w: failed to read body: %v", ErrInvalidBody, err)
	}
	if len(body) > MaxEventSize {
		return Event{}, fmt.Errorf("%w: body too large (max %d bytes)", ErrInvalidBody, MaxEventSize)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if fields == nil {
		return Event{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidBody)
	}

	path, hasPath := fields["path"]

	return Event{
		UID:      coerceString(fields["uid"]),
		Path:     coerceString(path),
		ClientID: coerceString(fields["clientId"]),
		HasPath:  hasPath,
	}, nil
}

func coerceString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}
