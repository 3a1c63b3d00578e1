// Package health models the status reported by a backend as a tagged value
// instead of a sentinel string.
package health

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// sentinel is the wire value a backend reports when it is healthy.
const sentinel = "ok"

type Kind int

// KindUnhealthy is the zero value so an unset Status never reads as healthy.
const (
	KindUnhealthy Kind = iota
	KindHealthy
)

func (k Kind) String() string {
	switch k {
	case KindHealthy:
		return "HEALTHY"
	case KindUnhealthy:
		return "UNHEALTHY"
	default:
		return "UNKNOWN"
	}
}

// Status is either healthy or unhealthy with a raw JSON detail. The zero
// value is unhealthy without detail.
type Status struct {
	kind   Kind
	detail json.RawMessage
}

func Healthy() Status {
	return Status{kind: KindHealthy}
}

func Unhealthy(detail json.RawMessage) Status {
	return Status{kind: KindUnhealthy, detail: detail}
}

// Parse maps a raw status payload to a Status. "ok", null and an empty
// payload are healthy, anything else is carried as the unhealthy detail.
func Parse(raw json.RawMessage) (Status, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Healthy(), nil
	}
	if !json.Valid(trimmed) {
		return Status{}, fmt.Errorf("invalid status payload: %q", string(trimmed))
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil && s == sentinel {
		return Healthy(), nil
	}
	detail := make(json.RawMessage, len(trimmed))
	copy(detail, trimmed)
	return Unhealthy(detail), nil
}

func (s Status) Kind() Kind {
	return s.kind
}

func (s Status) IsHealthy() bool {
	return s.kind == KindHealthy
}

func (s Status) Detail() json.RawMessage {
	return s.detail
}

// MarshalJSON encodes a healthy status as null and an unhealthy one as its
// detail. An unhealthy status without detail must not look healthy.
func (s Status) MarshalJSON() ([]byte, error) {
	if s.IsHealthy() {
		return []byte("null"), nil
	}
	if len(s.detail) == 0 {
		return json.Marshal("unhealthy")
	}
	return s.detail, nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) String() string {
	if s.IsHealthy() || len(s.detail) == 0 {
		return s.kind.String()
	}
	return fmt.Sprintf("%s: %s", s.kind, string(s.detail))
}
