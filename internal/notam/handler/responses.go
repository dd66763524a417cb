package handler

import (
	"time"

	"notamcore/internal/notam/service"
)

// NotamResponse is one classified NOTAM.
type NotamResponse struct {
	ID            string     `json:"id"`
	IdentityKey   string     `json:"identity_key"`
	Location      string     `json:"location"`
	QCode         string     `json:"q_code,omitempty"`
	Message       string     `json:"message,omitempty"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	DistanceNM    *float64   `json:"distance_nm,omitempty"`
	Priority      string     `json:"priority"`
	Icon          string     `json:"icon,omitempty"`
	Rule          string     `json:"rule"`
	Status        string     `json:"status,omitempty"`
	IsNew         bool       `json:"is_new"`
}

// RefreshResponse is the HTTP response for POST /notams/refresh.
type RefreshResponse struct {
	CycleID     string            `json:"cycle_id"`
	Scope       string            `json:"scope"`
	Notams      []NotamResponse   `json:"notams"`
	Statuses    map[string]string `json:"statuses"`
	Added       int               `json:"added"`
	Removed     int               `json:"removed"`
	RefreshedAt time.Time         `json:"refreshed_at"`
}

// EvaluateResponse is the HTTP response for POST /notams/evaluate.
type EvaluateResponse struct {
	Notams      []NotamResponse `json:"notams"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// SetStatusResponse echoes the stored status.
type SetStatusResponse struct {
	Scope  string `json:"scope"`
	Key    string `json:"key"`
	Status string `json:"status"`
}

func toNotamResponse(c service.ClassifiedNotam) NotamResponse {
	return NotamResponse{
		ID:            c.Notam.ID,
		IdentityKey:   c.IdentityKey,
		Location:      c.Notam.Location,
		QCode:         c.Notam.QCode,
		Message:       c.Notam.Message,
		EffectiveFrom: c.Notam.EffectiveFrom,
		EffectiveTo:   c.Notam.EffectiveTo,
		DistanceNM:    c.DistanceNM,
		Priority:      c.Priority.String(),
		Icon:          c.Priority.Icon(),
		Rule:          c.Rule,
		Status:        string(c.Status),
		IsNew:         c.IsNew,
	}
}

func toNotamResponses(classified []service.ClassifiedNotam) []NotamResponse {
	out := make([]NotamResponse, len(classified))
	for i, c := range classified {
		out[i] = toNotamResponse(c)
	}
	return out
}

// FromRefreshResult converts a refresh result to an HTTP response.
func FromRefreshResult(result *service.RefreshResult) *RefreshResponse {
	statuses := make(map[string]string, len(result.Statuses))
	for id, st := range result.Statuses {
		statuses[id] = string(st)
	}
	return &RefreshResponse{
		CycleID:     result.CycleID,
		Scope:       result.Scope,
		Notams:      toNotamResponses(result.Notams),
		Statuses:    statuses,
		Added:       len(result.Diff.Added),
		Removed:     len(result.Diff.Removed),
		RefreshedAt: result.RefreshedAt,
	}
}

// FromClassified converts a stateless evaluation to an HTTP response.
func FromClassified(classified []service.ClassifiedNotam, at time.Time) *EvaluateResponse {
	return &EvaluateResponse{
		Notams:      toNotamResponses(classified),
		EvaluatedAt: at,
	}
}
