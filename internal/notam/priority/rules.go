package priority

import (
	"notamcore/internal/flight"
	"notamcore/internal/notam/models"
)

// Default thresholds. Both are overridable through Options.
const (
	DefaultProximityNM         = 10.0
	DefaultAltitudeToleranceFt = flight.CruiseToleranceFeet
)

// Rule classifies one NOTAM or abstains. Rules are independent of each
// other; precedence comes only from their position in the chain.
type Rule interface {
	// Name identifies the rule in explanations and metrics.
	Name() string
	// Evaluate returns a priority and true when the rule applies.
	// distanceNM is the precomputed distance to the route, nil when unknown.
	Evaluate(n models.Notam, distanceNM *float64, fc flight.Context) (models.Priority, bool)
}

// DefaultRules returns the classification chain in evaluation order.
// Rule order (first match wins):
//  1. Runway closure at departure/destination (high)
//  2. Close to route and inside the cruise band (high)
//  3. Helicopter operations (low)
//  4. Obstacles away from departure/destination (low)
//
// Reordering changes outcomes; the order test pins it.
func DefaultRules(opts ...Option) []Rule {
	o := applyOptions(opts)
	return []Rule{
		RunwayClosureAtAirport{},
		CloseAndRelevantAltitude{ProximityNM: o.proximityNM, ToleranceFeet: o.altitudeToleranceFt},
		HelicopterNotams{},
		ObstaclesFarFromAirports{},
	}
}

// RunwayClosureAtAirport raises runway closures at the departure or
// destination airport. The Q-code must say runway + closed and the parser
// must have tagged the notice closed.
type RunwayClosureAtAirport struct{}

func (RunwayClosureAtAirport) Name() string { return "runway_closure_at_airport" }

func (RunwayClosureAtAirport) Evaluate(n models.Notam, _ *float64, fc flight.Context) (models.Priority, bool) {
	if !fc.IsDepartureOrDestination(n.Location) {
		return 0, false
	}
	if n.QCodeSubject() != models.SubjectRunway || n.QCodeCondition() != models.ConditionClosed {
		return 0, false
	}
	if !n.HasTag(models.TagClosed) {
		return 0, false
	}
	return models.PriorityHigh, true
}

// CloseAndRelevantAltitude raises notices within ProximityNM of the route
// whose vertical extent overlaps the cruise band. Surface-to-unlimited
// extents are too unspecific and never match.
type CloseAndRelevantAltitude struct {
	ProximityNM   float64
	ToleranceFeet int
}

func (CloseAndRelevantAltitude) Name() string { return "close_and_relevant_altitude" }

func (r CloseAndRelevantAltitude) Evaluate(n models.Notam, distanceNM *float64, fc flight.Context) (models.Priority, bool) {
	if distanceNM == nil || *distanceNM > r.ProximityNM {
		return 0, false
	}
	if n.IsSurfaceToUnlimited() {
		return 0, false
	}
	lower, upper, ok := n.VerticalRange()
	if !ok {
		return 0, false
	}
	band := fc.CruiseAltitudeRangeWithin(r.ToleranceFeet)
	if band == nil || !band.Overlaps(lower, upper) {
		return 0, false
	}
	return models.PriorityHigh, true
}

// HelicopterNotams lowers heliport and helicopter-platform notices
// regardless of location or distance.
type HelicopterNotams struct{}

func (HelicopterNotams) Name() string { return "helicopter_notams" }

func (HelicopterNotams) Evaluate(n models.Notam, _ *float64, _ flight.Context) (models.Priority, bool) {
	switch n.QCodeSubject() {
	case models.SubjectHeliport, models.SubjectHelicopterPad:
		return models.PriorityLow, true
	}
	return 0, false
}

// ObstaclesFarFromAirports lowers obstacle notices that are not at the
// departure or destination airport.
type ObstaclesFarFromAirports struct{}

func (ObstaclesFarFromAirports) Name() string { return "obstacles_far_from_airports" }

func (ObstaclesFarFromAirports) Evaluate(n models.Notam, _ *float64, fc flight.Context) (models.Priority, bool) {
	if n.QCodeSubject() != models.SubjectObstacle {
		return 0, false
	}
	if fc.IsDepartureOrDestination(n.Location) {
		return 0, false
	}
	return models.PriorityLow, true
}
