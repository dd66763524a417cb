package service

import (
	"time"

	"notamcore/internal/flight"
	"notamcore/internal/notam/identity"
	"notamcore/internal/notam/models"
	"notamcore/internal/notam/priority"
)

// RefreshRequest is one freshly fetched NOTAM set for a scope.
type RefreshRequest struct {
	Scope  string
	Flight flight.Context
	Notams []priority.Input
	// FilterToFlightWindow drops NOTAMs not in force during the flight
	// window from the classified output. Identity state still covers the
	// whole fetch.
	FilterToFlightWindow bool
}

// ClassifiedNotam is a NOTAM with its evaluation and cycle annotations.
type ClassifiedNotam struct {
	Notam       models.Notam
	IdentityKey string
	DistanceNM  *float64
	Priority    models.Priority
	Rule        string
	// Status is empty when the user never annotated this NOTAM.
	Status models.Status
	IsNew  bool
}

// RefreshResult is the outcome of one cycle.
type RefreshResult struct {
	CycleID string
	Scope   string
	Notams  []ClassifiedNotam
	// Statuses carried from the previous cycle, keyed by NOTAM ID.
	Statuses    map[string]models.Status
	Diff        identity.CycleDiff
	RefreshedAt time.Time
}
