package testutil

import "testing"

// Given, When, and Then keep scenario-style test names readable without
// pulling in a BDD framework. Each nests a t.Run with the matching prefix.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}

// Ptr returns a pointer to v; fixtures use it for optional NOTAM fields.
func Ptr[T any](v T) *T {
	return &v
}
