// Package identity recognises the same NOTAM across repeated fetches.
//
// The identity key is derived from exactly four fields: ID, Q-code,
// location and the UTC calendar date of EffectiveFrom. Free-text fields
// (message, raw text, confidence, tags) do not participate, so a reworded
// notice keeps its identity while a reissue under a new ID does not.
//
// Every function here is pure and safe for concurrent use.
package identity

import (
	"strings"

	"notamcore/internal/notam/models"
)

// Separator joins the key components.
const Separator = "|"

const dateLayout = "2006-01-02"

// Key derives the identity key for n. ID is always the first component; an
// absent Q-code leaves an empty segment.
func Key(n models.Notam) string {
	var sb strings.Builder
	sb.Grow(len(n.ID) + len(n.QCode) + len(n.Location) + len(dateLayout) + 3*len(Separator))
	sb.WriteString(n.ID)
	sb.WriteString(Separator)
	sb.WriteString(n.QCode)
	sb.WriteString(Separator)
	sb.WriteString(n.Location)
	sb.WriteString(Separator)
	sb.WriteString(n.EffectiveFrom.UTC().Format(dateLayout))
	return sb.String()
}

// AreEqual reports whether a and b are the same notice.
func AreEqual(a, b models.Notam) bool {
	return Key(a) == Key(b)
}

// FindMatch returns the first element of collection with target's key.
func FindMatch(target models.Notam, collection []models.Notam) (models.Notam, bool) {
	key := Key(target)
	for _, n := range collection {
		if Key(n) == key {
			return n, true
		}
	}
	return models.Notam{}, false
}

// CreateLookup indexes notams by key. When two notices share a key the
// later one wins.
func CreateLookup(notams []models.Notam) map[string]models.Notam {
	lookup := make(map[string]models.Notam, len(notams))
	for _, n := range notams {
		lookup[Key(n)] = n
	}
	return lookup
}

// TransferStatuses carries statuses recorded against identity keys onto
// the current fetch. The result is keyed by NOTAM ID, which is what the
// display layer looks statuses up by. NOTAMs with no previous status are
// omitted.
func TransferStatuses(previous map[string]models.Status, current []models.Notam) map[string]models.Status {
	result := make(map[string]models.Status)
	if len(previous) == 0 {
		return result
	}
	for _, n := range current {
		if st, ok := previous[Key(n)]; ok {
			result[n.ID] = st
		}
	}
	return result
}

// FindNewNotams returns, in order, the NOTAMs of current whose key is not
// in previousKeys.
func FindNewNotams(current []models.Notam, previousKeys map[string]struct{}) []models.Notam {
	var fresh []models.Notam
	for _, n := range current {
		if _, seen := previousKeys[Key(n)]; !seen {
			fresh = append(fresh, n)
		}
	}
	return fresh
}

// IdentityKeys returns the key set of notams, to be handed to
// FindNewNotams on the next cycle.
func IdentityKeys(notams []models.Notam) map[string]struct{} {
	keys := make(map[string]struct{}, len(notams))
	for _, n := range notams {
		keys[Key(n)] = struct{}{}
	}
	return keys
}
