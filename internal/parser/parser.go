// Package parser turns tool output into marker sets: native JSON set
// documents and GCC-style text diagnostics.
package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/changsongyang/markerd/internal/marker"
)

// diagRe matches "path:line[:col]: [severity:] message" diagnostic lines as
// emitted by gcc, clang, go vet, tsc and most linters.
var diagRe = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*(?:(?i:(fatal error|error|warning|info|note|usage))\s*:\s*)?(.*)$`)

// ParseSet decodes the native JSON drop format, which is the same shape as
// the publish payload: {"name", "base_path", "markers": [...]}.
func ParseSet(data []byte) (marker.Set, error) {
	var set marker.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return marker.Set{}, fmt.Errorf("parser: decode set: %w", err)
	}
	return set, nil
}

// ParseText extracts diagnostics from plain tool output, one marker per
// matching line; lines that do not look like diagnostics are skipped. The
// returned set carries the given name and no base path. A clean log yields
// an empty set, which on publish clears the tool's previous markers.
//
// Classification: an explicit severity word wins; a diagnostic line without
// one counts as an error (compilers rarely label their errors). Error
// markers are promoted to the error-list view.
func ParseText(data []byte, name string) marker.Set {
	set := marker.Set{Name: name, Markers: []marker.Marker{}}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		m, ok := parseLine(line)
		if !ok {
			continue
		}
		set.Markers = append(set.Markers, m)
	}
	return set
}

func parseLine(line string) (marker.Marker, bool) {
	groups := diagRe.FindStringSubmatch(line)
	if groups == nil {
		return marker.Marker{}, false
	}
	lineNo, err := strconv.Atoi(groups[2])
	if err != nil || lineNo < 1 {
		return marker.Marker{}, false
	}
	col := 1
	if groups[3] != "" {
		if col, err = strconv.Atoi(groups[3]); err != nil || col < 1 {
			col = 1
		}
	}
	kind := classify(groups[4])
	return marker.Marker{
		Kind:          kind,
		Path:          groups[1],
		Line:          lineNo,
		Column:        col,
		Message:       groups[5],
		ShowErrorList: kind == marker.KindError,
	}, true
}

func classify(severity string) marker.Kind {
	severity = strings.ToLower(severity)
	switch {
	case severity == "":
		return marker.KindError
	case strings.HasPrefix(severity, "fatal"):
		return marker.KindError
	default:
		return marker.ParseKind(severity)
	}
}
