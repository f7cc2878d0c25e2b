package toolcall

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Execute resolves and runs one parsed call. Every failure mode — unknown
// tool, bad arity, type mismatch, implementation error or panic — becomes a
// structured Result; nothing propagates as an error.
func Execute(ctx context.Context, registry *Registry, call Call) Result {
	tool, ok := registry.Get(call.Name)
	if !ok {
		return Result{
			ToolName: call.Name,
			Error:    fmt.Sprintf("unknown tool %q; it is not registered", call.Name),
		}
	}

	if failure := validateArgs(tool, call.Args); failure != "" {
		return Result{ToolName: call.Name, Error: failure}
	}

	value, err := run(ctx, tool, call.Args)
	if err != nil {
		return Result{ToolName: call.Name, Error: err.Error()}
	}
	return Result{ToolName: call.Name, Success: true, Value: value}
}

// ExecuteBatch runs independent calls concurrently and returns results in
// the same order as the input. Each call is isolated; one failure never
// cancels the others.
func ExecuteBatch(ctx context.Context, registry *Registry, calls []Call) []Result {
	results := make([]Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = Execute(gctx, registry, call)
			return nil
		})
	}
	// Workers never return errors; failures are values in results.
	_ = g.Wait()
	return results
}

// validateArgs checks arity and per-argument runtime types against the
// tool's declared parameter list. Returns "" when valid, otherwise a failure
// message naming the offending position and parameter.
func validateArgs(tool *Definition, args []any) string {
	required := tool.RequiredParams()
	if len(args) < required {
		return fmt.Sprintf("%s requires at least %d argument(s), got %d",
			tool.Name, required, len(args))
	}

	// Arguments beyond the declared list are tolerated for forward
	// compatibility; only declared positions are type-checked.
	for i, arg := range args {
		if i >= len(tool.Params) {
			break
		}
		param := tool.Params[i]
		if arg == nil {
			// The model passed null; let the implementation decide.
			continue
		}
		if !matchesType(arg, param.Type) {
			return fmt.Sprintf("argument %d (%s) of %s: expected %s, got %s",
				i+1, param.Name, tool.Name, param.Type, typeName(arg))
		}
	}
	return ""
}

func matchesType(v any, declared string) bool {
	switch declared {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		n, ok := v.(float64)
		return ok && !math.IsNaN(n)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeAny, "":
		return true
	default:
		return false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return TypeString
	case float64:
		return TypeNumber
	case bool:
		return TypeBoolean
	case map[string]any:
		return TypeObject
	case []any:
		return TypeArray
	default:
		return fmt.Sprintf("%T", v)
	}
}

// run shields the executor from a panicking tool implementation.
func run(ctx context.Context, tool *Definition, args []any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, rec)
		}
	}()
	return tool.Execute(ctx, args)
}
