package api

import (
	"github.com/changsongyang/markerd/internal/index"
	"github.com/changsongyang/markerd/internal/marker"
)

// SetActiveRequest is the request body for selecting the active set.
type SetActiveRequest struct {
	Name string `json:"name" example:"Lint" validate:"required"`
}

// MarkerPayload is one marker in a publish request.
type MarkerPayload struct {
	Type          int    `json:"type" example:"0"`
	Path          string `json:"path" example:"~/project/src/main.ts" validate:"required"`
	Line          int    `json:"line" example:"10" validate:"required"`
	Column        int    `json:"column" example:"1" validate:"required"`
	Message       string `json:"message" example:"bad token"`
	ShowErrorList bool   `json:"show_error_list" example:"true"`
}

// PublishSetRequest is the request body for publishing a complete marker set.
type PublishSetRequest struct {
	Name     string          `json:"name" example:"Lint" validate:"required"`
	BasePath string          `json:"base_path" example:"~/project/"`
	Markers  []MarkerPayload `json:"markers" validate:"required"`
}

// toSet converts the request to its domain form.
func (r PublishSetRequest) toSet() marker.Set {
	set := marker.Set{
		Name:     r.Name,
		BasePath: r.BasePath,
		Markers:  make([]marker.Marker, len(r.Markers)),
	}
	for i, m := range r.Markers {
		set.Markers[i] = marker.Marker{
			Kind:          marker.Kind(m.Type),
			Path:          m.Path,
			Line:          m.Line,
			Column:        m.Column,
			Message:       m.Message,
			ShowErrorList: m.ShowErrorList,
		}
	}
	return set
}

// StateView is the client state response type (aliased from the domain layer).
type StateView = marker.StateView

// SetView is the single-set response type (aliased from the domain layer).
type SetView = marker.SetView

// SetListResponse wraps the set listing.
type SetListResponse struct {
	Names  []string `json:"names" validate:"required"`
	Active string   `json:"active" example:"Lint"`
}

// SearchHit is a single query hit (aliased from the index layer).
type SearchHit = index.Hit

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchHit `json:"results" validate:"required"`
}

// ErrorListResponse wraps the error-list view.
type ErrorListResponse struct {
	Markers []SearchHit `json:"markers" validate:"required"`
}

// SummaryResponse wraps per-kind marker counts.
type SummaryResponse struct {
	Set    string       `json:"set,omitempty" example:"Lint"`
	Totals index.Totals `json:"totals" validate:"required"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
