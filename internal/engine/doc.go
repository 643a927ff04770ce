// Package engine executes compiled state graphs.
//
// A StateGraph is assembled from runnable nodes, unconditional edges and
// conditional edges, then compiled into an Executable. Invoke threads a single
// State through the graph in supersteps: every node on the current frontier
// runs to completion and merges its update before the next frontier is
// computed. Conditional edges are selected by comparing their label with the
// state's route field.
package engine
