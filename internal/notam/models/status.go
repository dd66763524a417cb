package models

import (
	"fmt"
	"strings"
)

// Status is the user's annotation on a NOTAM. The core carries it across
// refresh cycles without interpreting it.
type Status string

const (
	StatusUnread    Status = "unread"
	StatusRead      Status = "read"
	StatusImportant Status = "important"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusImportant:
		return true
	}
	return false
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("unknown notam status %q", s)
	}
	return st, nil
}

// Cycle is the state one refresh leaves behind for the next: the identity
// keys seen and the statuses recorded against them.
type Cycle struct {
	Keys     map[string]struct{}
	Statuses map[string]Status
}

// NewCycle returns an empty cycle, the state of a scope never refreshed.
func NewCycle() *Cycle {
	return &Cycle{
		Keys:     make(map[string]struct{}),
		Statuses: make(map[string]Status),
	}
}
