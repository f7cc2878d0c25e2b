// Package toolcall implements the constrained protocol that lets a text-only
// language model invoke typed functions: a parser for fenced call blocks, a
// registry of tool definitions, a validating executor, and the iterative
// feedback loop that drives a conversation until the model signals it is
// done.
package toolcall

import "context"

// Parameter types a tool may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeAny     = "any"
)

// Param describes one positional parameter of a tool.
type Param struct {
	// Name is the parameter's display name, used in prompts and failures.
	Name string

	// Type is one of the Type* constants.
	Type string

	// Description explains the parameter to the model.
	Description string

	// Required parameters must be supplied; trailing optional parameters
	// may be omitted.
	Required bool
}

// ExecuteFunc runs a tool with already-validated positional arguments.
type ExecuteFunc func(ctx context.Context, args []any) (any, error)

// Definition declares one callable tool.
type Definition struct {
	// Name is the unique identifier the model uses to call the tool.
	Name string

	// Description explains what the tool does, for the tool prompt.
	Description string

	// Params declares the positional parameters in order. Required
	// parameters must precede optional ones.
	Params []Param

	// Execute runs the tool.
	Execute ExecuteFunc
}

// RequiredParams returns how many leading parameters are required.
func (d *Definition) RequiredParams() int {
	n := 0
	for _, p := range d.Params {
		if p.Required {
			n++
		}
	}
	return n
}

// Call is one parsed tool invocation from a model reply.
type Call struct {
	// Name is the tool name as written by the model.
	Name string

	// Args are the parsed positional arguments: string, float64, bool,
	// map[string]any, []any, or nil.
	Args []any

	// Raw is the source text of the call, kept for audit logs.
	Raw string
}

// Result is the outcome of executing one call. It is a value, never an
// exception: validation problems and implementation failures both land here.
type Result struct {
	// ToolName correlates the result with its call.
	ToolName string

	// Success reports whether the tool ran and returned normally.
	Success bool

	// Value is the tool's return value, present iff Success.
	Value any

	// Error is the failure message, present iff !Success.
	Error string
}
