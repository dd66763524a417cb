package identity

import (
	"slices"

	"notamcore/internal/notam/models"
)

// CycleDiff partitions keys between two consecutive fetches.
type CycleDiff struct {
	Added    []string
	Retained []string
	Removed  []string
}

// Diff compares the previous key set against the current fetch. Added and
// Retained follow the order of current; Removed is sorted so the result is
// deterministic.
func Diff(previousKeys map[string]struct{}, current []models.Notam) CycleDiff {
	var d CycleDiff
	seen := make(map[string]struct{}, len(current))
	for _, n := range current {
		k := Key(n)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := previousKeys[k]; ok {
			d.Retained = append(d.Retained, k)
		} else {
			d.Added = append(d.Added, k)
		}
	}
	for k := range previousKeys {
		if _, ok := seen[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}
	slices.Sort(d.Removed)
	return d
}
