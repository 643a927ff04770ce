package compiler

import (
	"errors"
	"fmt"
)

// Stage is a point in the compilation of one document.
type Stage int

const (
	Unvalidated Stage = iota
	Validated
	ReferencesResolved
	NodesBuilt
	Assembled
)

func (s Stage) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Validated:
		return "validated"
	case ReferencesResolved:
		return "references-resolved"
	case NodesBuilt:
		return "nodes-built"
	case Assembled:
		return "assembled"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

var (
	// ErrRecursiveSubgraph is returned when a document includes itself,
	// directly or through other sub-graphs.
	ErrRecursiveSubgraph = errors.New("recursive sub-graph")
	// ErrDepthExceeded is returned when sub-graphs nest deeper than allowed.
	ErrDepthExceeded = errors.New("sub-graph nesting too deep")
)

// Error is a compilation failure. Stage is the last stage the document
// reached before the failure.
type Error struct {
	Stage    Stage
	Document string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("compile %s (at %s): %v", e.Document, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
