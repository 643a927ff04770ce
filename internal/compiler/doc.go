// Package compiler turns a graph document into an executable graph.
//
// Compilation of one document moves through a fixed sequence of stages:
//
//	Unvalidated -> Validated -> ReferencesResolved -> NodesBuilt -> Assembled
//
// Validation is purely structural. References are then built in dependency
// order, nodes are built through the registry (sub-graph nodes recurse into
// the compiler with their own document), the state key set is derived, and
// finally the edges are handed to the execution engine. A failure at any stage
// aborts the whole compilation and releases whatever was built.
package compiler
