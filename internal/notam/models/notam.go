// Package models holds the NOTAM value types shared by identity, priority
// and the refresh service. Values are immutable once built by the parser.
package models

import (
	"slices"
	"strings"
	"time"
)

// Vertical extent sentinels. A NOTAM published "surface to unlimited" says
// nothing useful about altitude and is never altitude-relevant.
const (
	SurfaceFeet   = 0
	UnlimitedFeet = 99900
)

// Q-code subject and condition segments the priority rules care about.
const (
	SubjectRunway        = "MR"
	SubjectObstacle      = "OB"
	SubjectHeliport      = "FH"
	SubjectHelicopterPad = "FP"
	ConditionClosed      = "LC"
)

// TagClosed is the custom tag the parser sets on closure notices.
const TagClosed = "closed"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c is a finite point inside the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Notam is one parsed notice. ID, Location and EffectiveFrom are always
// set; every other field is optional.
type Notam struct {
	ID               string      `json:"id"`
	Location         string      `json:"location"`
	QCode            string      `json:"q_code,omitempty"`
	Coordinate       *Coordinate `json:"coordinate,omitempty"`
	LowerLimit       *int        `json:"lower_limit,omitempty"`
	UpperLimit       *int        `json:"upper_limit,omitempty"`
	IsPermanent      bool        `json:"is_permanent"`
	EffectiveFrom    time.Time   `json:"effective_from"`
	EffectiveTo      *time.Time  `json:"effective_to,omitempty"`
	Message          string      `json:"message,omitempty"`
	RawText          string      `json:"raw_text,omitempty"`
	ParsedAt         time.Time   `json:"parsed_at,omitzero"`
	ParseConfidence  float64     `json:"parse_confidence,omitempty"`
	CustomCategories []string    `json:"custom_categories,omitempty"`
	CustomTags       []string    `json:"custom_tags,omitempty"`
}

// QCodeSubject returns the two subject letters of the Q-code (e.g. "MR"),
// or "" when the code is absent or malformed.
func (n Notam) QCodeSubject() string {
	if len(n.QCode) < 5 {
		return ""
	}
	return strings.ToUpper(n.QCode[1:3])
}

// QCodeCondition returns the two status letters of the Q-code (e.g. "LC").
func (n Notam) QCodeCondition() string {
	if len(n.QCode) < 5 {
		return ""
	}
	return strings.ToUpper(n.QCode[3:5])
}

// HasTag reports whether the parser attached tag, ignoring case.
func (n Notam) HasTag(tag string) bool {
	return slices.ContainsFunc(n.CustomTags, func(t string) bool {
		return strings.EqualFold(strings.TrimSpace(t), tag)
	})
}

// VerticalRange returns the closed [lower, upper] extent in feet when both
// limits are published.
func (n Notam) VerticalRange() (lower, upper int, ok bool) {
	if n.LowerLimit == nil || n.UpperLimit == nil {
		return 0, 0, false
	}
	return *n.LowerLimit, *n.UpperLimit, true
}

// IsSurfaceToUnlimited reports whether the extent is the [SFC, UNL]
// sentinel. Upper limits above 99900 are treated the same way.
func (n Notam) IsSurfaceToUnlimited() bool {
	lower, upper, ok := n.VerticalRange()
	return ok && lower <= SurfaceFeet && upper >= UnlimitedFeet
}

// IsActiveDuring reports whether the notice overlaps [from, to]. Permanent
// notices and notices without an end are open-ended.
func (n Notam) IsActiveDuring(from, to time.Time) bool {
	if n.EffectiveFrom.After(to) {
		return false
	}
	if n.IsPermanent || n.EffectiveTo == nil {
		return true
	}
	return !n.EffectiveTo.Before(from)
}
