package function

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vk/blockgraph/internal/funclib"
)

func registerBuiltins(lib *funclib.Library) {
	lib.RegisterFunc("text", "upper", textUpper)
	lib.RegisterFunc("text", "lower", textLower)
	lib.RegisterFunc("text", "split_lines", textSplitLines)
	lib.RegisterFunc("text", "join", textJoin)
	lib.RegisterFunc("text", "template", textTemplate)

	lib.RegisterFunc("math", "double", mathDouble)
	lib.RegisterFunc("math", "add", mathAdd)
	lib.RegisterFunc("math", "divmod", mathDivmod)
	lib.RegisterFunc("math", "route_by_sign", mathRouteBySign)
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

func numberArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("argument %q must be a number, got %T", name, v)
}

// number keeps whole results as int so state values stay tidy.
func number(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func textUpper(_ context.Context, args map[string]any) (any, error) {
	s, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func textLower(_ context.Context, args map[string]any) (any, error) {
	s, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

// textSplitLines returns the first line and the rest.
func textSplitLines(_ context.Context, args map[string]any) (any, error) {
	s, err := stringArg(args, "text")
	if err != nil {
		return nil, err
	}
	head, tail, _ := strings.Cut(s, "\n")
	return []any{head, tail}, nil
}

func textJoin(_ context.Context, args map[string]any) (any, error) {
	sep, _ := args["separator"].(string)
	var parts []string
	switch items := args["items"].(type) {
	case []string:
		parts = items
	case []any:
		for _, it := range items {
			parts = append(parts, fmt.Sprint(it))
		}
	default:
		return nil, fmt.Errorf("argument \"items\" must be a list, got %T", args["items"])
	}
	return strings.Join(parts, sep), nil
}

// textTemplate replaces {name} placeholders in "template" with other arguments.
func textTemplate(_ context.Context, args map[string]any) (any, error) {
	tmpl, err := stringArg(args, "template")
	if err != nil {
		return nil, err
	}
	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		if k != "template" {
			pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
		}
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

func mathDouble(_ context.Context, args map[string]any) (any, error) {
	x, err := numberArg(args, "x")
	if err != nil {
		return nil, err
	}
	return number(x * 2), nil
}

func mathAdd(_ context.Context, args map[string]any) (any, error) {
	a, err := numberArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberArg(args, "b")
	if err != nil {
		return nil, err
	}
	return number(a + b), nil
}

func mathDivmod(_ context.Context, args map[string]any) (any, error) {
	a, err := numberArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberArg(args, "b")
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, fmt.Errorf("division by zero")
	}
	return []any{number(math.Floor(a / b)), number(math.Mod(a, b))}, nil
}

// mathRouteBySign returns "negative", "zero" or "positive" and is meant to
// feed the route key of conditional edges.
func mathRouteBySign(_ context.Context, args map[string]any) (any, error) {
	x, err := numberArg(args, "x")
	if err != nil {
		return nil, err
	}
	switch {
	case x < 0:
		return "negative", nil
	case x == 0:
		return "zero", nil
	default:
		return "positive", nil
	}
}
