package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/nodetype"
)

// Validate reports every supported tag that has no strategy. Sub-graph tags
// are handled by the compiler and are not expected here.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var missing []string

	for _, tag := range nodetype.Tags(nodetype.Execution) {
		if nodetype.IsSubgraph(tag) {
			continue
		}
		if _, ok := r.nodes[tag]; !ok {
			missing = append(missing, "node type '"+tag+"'")
		}
	}
	for _, tag := range nodetype.Tags(nodetype.NonExecution) {
		if _, ok := r.refs[tag]; !ok {
			missing = append(missing, "reference type '"+tag+"'")
		}
	}

	logger.Debug("Registry validated.", "node_strategies", len(r.nodes), "reference_strategies", len(r.refs), "missing", len(missing))
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(missing, "\n- "))
	}
	return nil
}
