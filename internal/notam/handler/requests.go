package handler

import (
	"fmt"
	"strings"

	"notamcore/internal/flight"
	"notamcore/internal/notam/identity"
	"notamcore/internal/notam/models"
	"notamcore/internal/notam/priority"
	"notamcore/internal/notam/service"
	dErrors "notamcore/pkg/domain-errors"
)

const (
	maxScopeLength = 128
	maxNotams      = 5000
)

// NotamRequest is one NOTAM as delivered by the upstream parser, with the
// optional precomputed distance to the route.
type NotamRequest struct {
	models.Notam
	DistanceNM *float64 `json:"distance_nm,omitempty"`
}

// RefreshRequest is the HTTP request body for POST /notams/refresh.
type RefreshRequest struct {
	Scope                string         `json:"scope"`
	Flight               flight.Context `json:"flight"`
	Notams               []NotamRequest `json:"notams"`
	FilterToFlightWindow bool           `json:"filter_to_flight_window"`
}

// Validate validates and normalises the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RefreshRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Scope = strings.TrimSpace(r.Scope)
	if r.Scope == "" {
		return dErrors.New(dErrors.CodeValidation, "scope is required")
	}
	if len(r.Scope) > maxScopeLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("scope must be at most %d characters", maxScopeLength))
	}
	if err := validateNotams(r.Notams); err != nil {
		return err
	}
	r.Flight = r.Flight.Normalized()
	return nil
}

// ToDomain converts the validated request to a service request.
func (r *RefreshRequest) ToDomain() service.RefreshRequest {
	return service.RefreshRequest{
		Scope:                r.Scope,
		Flight:               r.Flight,
		Notams:               toInputs(r.Notams),
		FilterToFlightWindow: r.FilterToFlightWindow,
	}
}

// EvaluateRequest is the HTTP request body for POST /notams/evaluate.
type EvaluateRequest struct {
	Flight flight.Context `json:"flight"`
	Notams []NotamRequest `json:"notams"`
}

func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validateNotams(r.Notams); err != nil {
		return err
	}
	r.Flight = r.Flight.Normalized()
	return nil
}

// SetStatusRequest is the HTTP request body for PUT /notams/{scope}/status.
type SetStatusRequest struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

func (r *SetStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Key == "" {
		return dErrors.New(dErrors.CodeValidation, "key is required")
	}
	st, err := models.ParseStatus(r.Status)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "status must be one of unread, read, important")
	}
	r.Status = string(st)
	return nil
}

func validateNotams(notams []NotamRequest) error {
	if len(notams) > maxNotams {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("at most %d notams per request", maxNotams))
	}
	for i, n := range notams {
		switch {
		case strings.TrimSpace(n.ID) == "":
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d].id is required", i))
		case strings.TrimSpace(n.Location) == "":
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d].location is required", i))
		case strings.Contains(n.ID, identity.Separator),
			strings.Contains(n.QCode, identity.Separator),
			strings.Contains(n.Location, identity.Separator):
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d] id, q_code and location must not contain %q", i, identity.Separator))
		case n.EffectiveFrom.IsZero():
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d].effective_from is required", i))
		case n.Coordinate != nil && !n.Coordinate.Valid():
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d].coordinate must be within ±90 latitude and ±180 longitude", i))
		case n.DistanceNM != nil && *n.DistanceNM < 0:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notams[%d].distance_nm must not be negative", i))
		}
	}
	return nil
}

func toInputs(notams []NotamRequest) []priority.Input {
	inputs := make([]priority.Input, len(notams))
	for i, n := range notams {
		inputs[i] = priority.Input{Notam: n.Notam, DistanceNM: n.DistanceNM}
	}
	return inputs
}
