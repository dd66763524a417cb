// Package flight describes the flight NOTAMs are evaluated against.
package flight

import (
	"slices"
	"time"

	"notamcore/internal/notam/models"
	pstrings "notamcore/pkg/platform/strings"
)

const (
	// CruiseToleranceFeet is the band either side of cruise altitude in
	// which a vertical extent counts as relevant.
	CruiseToleranceFeet = 2000

	// WindowBuffer widens the departure-arrival window on both sides.
	WindowBuffer = 2 * time.Hour
)

// Context is an immutable description of one planned flight. Build it with
// New; the zero value is equivalent to Empty.
type Context struct {
	RouteCoordinates []models.Coordinate `json:"route_coordinates,omitempty" yaml:"route"`
	DepartureICAO    string              `json:"departure_icao,omitempty" yaml:"departure"`
	DestinationICAO  string              `json:"destination_icao,omitempty" yaml:"destination"`
	AlternateICAOs   []string            `json:"alternate_icaos,omitempty" yaml:"alternates"`
	CruiseAltitude   *int                `json:"cruise_altitude,omitempty" yaml:"cruise_altitude"`
	DepartureTime    *time.Time          `json:"departure_time,omitempty" yaml:"departure_time"`
	ArrivalTime      *time.Time          `json:"arrival_time,omitempty" yaml:"arrival_time"`
}

// Empty is the context used when no flight is planned.
var Empty = Context{}

// Option sets an optional field on a Context under construction.
type Option func(*Context)

// WithRoute sets the ordered route geometry.
func WithRoute(points ...models.Coordinate) Option {
	return func(c *Context) {
		c.RouteCoordinates = slices.Clone(points)
	}
}

// WithAlternates sets the alternate aerodromes.
func WithAlternates(icaos ...string) Option {
	return func(c *Context) {
		c.AlternateICAOs = icaos
	}
}

// WithCruiseAltitude sets the planned cruise altitude in feet.
func WithCruiseAltitude(feet int) Option {
	return func(c *Context) {
		c.CruiseAltitude = &feet
	}
}

// WithSchedule sets departure and arrival times.
func WithSchedule(departure, arrival time.Time) Option {
	return func(c *Context) {
		c.DepartureTime = &departure
		c.ArrivalTime = &arrival
	}
}

// New builds a normalised context: ICAO codes are trimmed and uppercased,
// alternates de-duplicated.
func New(departure, destination string, opts ...Option) Context {
	c := Context{
		DepartureICAO:   departure,
		DestinationICAO: destination,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c.Normalized()
}

// Normalized returns a copy with canonical identifiers. Decoders call it
// after unmarshalling user input.
func (c Context) Normalized() Context {
	c.DepartureICAO = pstrings.NormalizeICAO(c.DepartureICAO)
	c.DestinationICAO = pstrings.NormalizeICAO(c.DestinationICAO)
	c.AlternateICAOs = pstrings.DedupeICAO(c.AlternateICAOs)
	c.RouteCoordinates = slices.Clone(c.RouteCoordinates)
	return c
}

// HasValidRoute reports whether the route has at least two points.
func (c Context) HasValidRoute() bool {
	return len(c.RouteCoordinates) >= 2
}

// IsDepartureOrDestination reports whether icao is one of the flight's
// two primary airports. Identifiers compare trimmed and case-insensitively;
// empty identifiers never match.
func (c Context) IsDepartureOrDestination(icao string) bool {
	icao = pstrings.NormalizeICAO(icao)
	if icao == "" {
		return false
	}
	return icao == pstrings.NormalizeICAO(c.DepartureICAO) || icao == pstrings.NormalizeICAO(c.DestinationICAO)
}

// IsAlternate reports whether icao is a planned alternate.
func (c Context) IsAlternate(icao string) bool {
	icao = pstrings.NormalizeICAO(icao)
	return icao != "" && slices.ContainsFunc(c.AlternateICAOs, func(a string) bool {
		return pstrings.NormalizeICAO(a) == icao
	})
}

// AltitudeRange is a closed interval of altitudes in feet.
type AltitudeRange struct {
	Lower int
	Upper int
}

// Overlaps reports whether two closed intervals share at least one point.
func (r AltitudeRange) Overlaps(lower, upper int) bool {
	return r.Lower <= upper && lower <= r.Upper
}

// CruiseAltitudeRange returns cruise altitude ±CruiseToleranceFeet, or nil
// when no altitude is planned.
func (c Context) CruiseAltitudeRange() *AltitudeRange {
	return c.CruiseAltitudeRangeWithin(CruiseToleranceFeet)
}

// CruiseAltitudeRangeWithin is CruiseAltitudeRange with an explicit band.
func (c Context) CruiseAltitudeRangeWithin(toleranceFeet int) *AltitudeRange {
	if c.CruiseAltitude == nil {
		return nil
	}
	alt := *c.CruiseAltitude
	return &AltitudeRange{Lower: alt - toleranceFeet, Upper: alt + toleranceFeet}
}

// FlightWindowStart is departure minus WindowBuffer, or nil unless both
// departure and arrival are scheduled.
func (c Context) FlightWindowStart() *time.Time {
	if c.DepartureTime == nil || c.ArrivalTime == nil {
		return nil
	}
	t := c.DepartureTime.Add(-WindowBuffer)
	return &t
}

// FlightWindowEnd is arrival plus WindowBuffer, or nil unless both
// departure and arrival are scheduled.
func (c Context) FlightWindowEnd() *time.Time {
	if c.DepartureTime == nil || c.ArrivalTime == nil {
		return nil
	}
	t := c.ArrivalTime.Add(WindowBuffer)
	return &t
}

// IsRelevantInTime reports whether n is in force at some point of the
// flight window. Without a schedule every NOTAM is relevant.
func (c Context) IsRelevantInTime(n models.Notam) bool {
	start, end := c.FlightWindowStart(), c.FlightWindowEnd()
	if start == nil || end == nil {
		return true
	}
	return n.IsActiveDuring(*start, *end)
}
