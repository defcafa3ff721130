// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

// ErrNotFound marks lookups of marker sets that do not exist in the current
// session. The tolerant mutation paths never return it; only explicit reads
// (API set lookup, MCP tools) do.
var ErrNotFound = errors.New("not found")
