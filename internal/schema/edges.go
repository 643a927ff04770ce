package schema

import (
	"fmt"

	"github.com/vk/blockgraph/internal/document"
)

type edge struct {
	loc      string
	from, to string
}

func collectEdges(raw map[string]any, nodeNames map[string]bool) ([]edge, error) {
	list, _ := raw[document.FieldEdges].([]any)
	out := make([]edge, 0, len(list))
	for i, entry := range list {
		loc := fmt.Sprintf("edges[%d]", i)
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fail(ErrBadEdge, loc, "must be a mapping, got %T", entry)
		}
		from, _ := m["from"].(string)
		to, _ := m["to"].(string)
		if from == "" || to == "" {
			return nil, fail(ErrBadEdge, loc, "'from' and 'to' must be non-empty strings")
		}
		if from == document.End {
			return nil, fail(ErrBadEdge, loc, "an edge cannot leave END")
		}
		if to == document.Start {
			return nil, fail(ErrBadEdge, loc, "an edge cannot enter START")
		}
		if from != document.Start && !nodeNames[from] {
			return nil, fail(ErrBadEdge, loc, "'from' names unknown node %q", from)
		}
		if to != document.End && !nodeNames[to] {
			return nil, fail(ErrBadEdge, loc, "'to' names unknown node %q", to)
		}
		if cond, ok := m["condition"]; ok {
			if s, _ := cond.(string); s == "" {
				return nil, fail(ErrBadEdge, loc, "'condition' must be a non-empty string")
			}
		}
		out = append(out, edge{loc: loc, from: from, to: to})
	}
	return out, nil
}

func checkEntryExit(edges []edge) error {
	var entries, exits int
	for _, e := range edges {
		if e.from == document.Start {
			entries++
		}
		if e.to == document.End {
			exits++
		}
	}
	if exits != 1 {
		return fail(ErrExitEdge, "edges", "exactly one edge must target END, found %d", exits)
	}
	if entries == 0 {
		return fail(ErrEntryEdge, "edges", "at least one edge must leave START")
	}
	return nil
}

func checkReachability(nodes []item, edges []edge) error {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.from] = append(adj[e.from], e.to)
	}

	// Forward: breadth-first from START.
	visited := map[string]bool{document.Start: true}
	queue := []string{document.Start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, n := range nodes {
		if !visited[n.name] {
			return fail(ErrUnreachable, n.loc, "no path from START reaches this node")
		}
	}
	if !visited[document.End] {
		return fail(ErrUnreachable, document.End, "no path from START reaches END")
	}

	// Backward: every node must have some path to END.
	reachesEnd := make(map[string]bool)
	for _, n := range nodes {
		if !pathToEnd(n.name, adj, reachesEnd, map[string]bool{}) {
			return fail(ErrDeadEnd, n.loc, "no path from this node reaches END")
		}
	}
	return nil
}

// pathToEnd is a depth-first search memoised on positive results.
func pathToEnd(cur string, adj map[string][]string, known, onPath map[string]bool) bool {
	if cur == document.End || known[cur] {
		return true
	}
	if onPath[cur] {
		return false
	}
	onPath[cur] = true
	for _, next := range adj[cur] {
		if pathToEnd(next, adj, known, onPath) {
			known[cur] = true
			return true
		}
	}
	return false
}
