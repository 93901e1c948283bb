package ringbuffer

import (
	"fmt"
	"strings"
)

// Policy defines how a push behaves when the buffer is full.
type Policy int

const (
	// Overwrite evicts an element to make room: PushBack evicts the front
	// (oldest), PushFront evicts the back (newest). This is the default.
	Overwrite Policy = iota

	// Reject fails the push with ErrBufferFull and leaves the buffer unchanged.
	Reject
)

// String returns a human-readable representation of the policy.
func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

func (p Policy) valid() bool {
	return p == Overwrite || p == Reject
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return Overwrite, nil
	case "reject":
		return Reject, nil
	default:
		return Overwrite, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("unknown overflow policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
