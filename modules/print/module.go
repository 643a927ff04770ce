// Package print exports the "print" library module, which writes node inputs
// to an output stream.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer
}

// Values prints every argument as a sorted "key = value" line and returns the
// printed text.
func (m *Module) Values(ctx context.Context, args map[string]any) (any, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "keys", len(args))

	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	if len(args) == 0 {
		_, err := fmt.Fprintln(out, "      (null)")
		return "", err
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := args[k]
		if s, ok := v.(string); ok {
			fmt.Fprintf(&b, "      %s = %q\n", k, s)
		} else {
			fmt.Fprintf(&b, "      %s = %v\n", k, v)
		}
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, err
	}
	return b.String(), nil
}

// Register exports print:values into the function library.
func (m *Module) Register(r *registry.Registry) {
	r.Library().RegisterFunc("print", "values", m.Values)
}
