// Package marker defines the session marker-set model: diagnostic markers
// produced by external tools, grouped into named ordered sets, with one set
// selected as active at a time.
package marker

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind classifies a marker's severity. The numeric values are the wire
// representation and must not be reordered.
type Kind int

const (
	KindError Kind = iota
	KindWarning
	KindInfo
	KindUsage
	KindOther
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	case KindInfo:
		return "info"
	case KindUsage:
		return "usage"
	default:
		return "other"
	}
}

// ParseKind maps a severity word to a Kind. Unrecognized words map to
// KindOther, so free-form tool output never fails to classify.
func ParseKind(s string) Kind {
	switch s {
	case "error", "fatal":
		return KindError
	case "warning", "warn":
		return KindWarning
	case "info", "note":
		return KindInfo
	case "usage":
		return KindUsage
	default:
		return KindOther
	}
}

// AutoSelect tells the client whether to focus a marker after a change event.
type AutoSelect int

const (
	AutoSelectNone AutoSelect = iota
	AutoSelectFirst
)

// Marker is one diagnostic entry. Immutable once constructed; Path is held
// resolved (absolute) inside the store.
type Marker struct {
	Kind          Kind   `json:"type"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
	Message       string `json:"message"`
	ShowErrorList bool   `json:"show_error_list"`
}

// Validate checks a marker arriving from a producer.
func (m Marker) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Kind, validation.In(KindError, KindWarning, KindInfo, KindUsage, KindOther)),
		validation.Field(&m.Path, validation.Required),
		validation.Field(&m.Line, validation.Min(1)),
		validation.Field(&m.Column, validation.Min(1)),
	)
}

// Set is one named, ordered marker collection. A producer always supplies a
// complete Set for a given name; there is no in-place marker editing.
type Set struct {
	Name     string   `json:"name"`
	BasePath string   `json:"base_path"`
	Markers  []Marker `json:"markers"`
}

// Validate checks a set arriving from a producer.
func (s Set) Validate() error {
	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
	); err != nil {
		return err
	}
	for i, m := range s.Markers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("marker %d: %w", i, err)
		}
	}
	return nil
}

// PathMapper converts between resolved absolute paths and their user-facing
// aliased form. Both directions are identity for paths the mapper does not
// recognize.
type PathMapper interface {
	Alias(path string) string
	Resolve(path string) string
}

// SetView is the client-facing form of a set: aliased paths, base_path null
// when unset and slash-terminated when present.
type SetView struct {
	Name     string   `json:"name"`
	BasePath *string  `json:"base_path"`
	Markers  []Marker `json:"markers"`
}

// StateView is the client-facing projection of the whole store. Names is
// null only when the store holds no sets; Markers is null unless the active
// name resolves to an existing set.
type StateView struct {
	Names   []string `json:"names"`
	Markers *SetView `json:"markers"`
}

// ChangeEvent is the payload pushed to the client on every mutation.
type ChangeEvent struct {
	MarkersState StateView  `json:"markers_state"`
	AutoSelect   AutoSelect `json:"auto_select"`
}
