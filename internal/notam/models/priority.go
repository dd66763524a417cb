package models

import (
	"fmt"
	"strings"
)

// Priority ranks a NOTAM's relevance to a flight. The zero value is Low so
// that ordering follows the numeric value: Low < Normal < High.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Icon is the display icon identifier; normal priority has none.
func (p Priority) Icon() string {
	switch p {
	case PriorityHigh:
		return "exclamationmark.triangle.fill"
	case PriorityLow:
		return "arrow.down.circle"
	default:
		return ""
	}
}

// Less reports whether p ranks below other.
func (p Priority) Less(other Priority) bool {
	return p < other
}

// ParsePriority parses "low", "normal" or "high".
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	parsed, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
