package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/llm"
)

// DefaultMaxIterations caps the feedback loop when the caller does not.
const DefaultMaxIterations = 20

// Request configures one run of the feedback loop.
type Request struct {
	SystemPrompt string
	UserPrompt   string

	// Tools the model may call. The termination tool is appended
	// automatically if absent.
	Tools []*Definition

	// MaxIterations bounds the loop; 0 means DefaultMaxIterations.
	MaxIterations int

	// Options are passed through to every model request.
	Options *llm.Options
}

// LoopResult is a successful loop outcome.
type LoopResult struct {
	// Output is the parsed final answer when the text was valid JSON,
	// otherwise the raw text.
	Output any

	// RawText is the final reply verbatim.
	RawText string

	// Iterations is how many model round-trips were consumed.
	Iterations int

	// ToolResults accumulates every executed tool's outcome, in order.
	ToolResults []Result
}

// Loop drives the tool feedback conversation. One Loop may be shared; all
// per-invocation state lives in Run's locals, so concurrent runs are
// independent.
type Loop struct {
	client llm.Client
	logger *zap.Logger
}

// NewLoop creates a loop driver over the given model capability.
func NewLoop(client llm.Client, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{client: client, logger: logger}
}

// GenerateToolPrompt renders the fixed textual template describing every
// tool's name, signature, and parameters, plus the calling convention.
func GenerateToolPrompt(tools []*Definition) string {
	var b strings.Builder
	b.WriteString("You can call tools. To call one, reply with a fenced block containing exactly one statement:\n\n")
	b.WriteString(FenceMarker + "\n")
	b.WriteString("return toolName(arg1, arg2);\n")
	b.WriteString("```\n\n")
	b.WriteString("Arguments may be strings (quoted), numbers, booleans, null, JSON objects, or JSON arrays.\n\n")
	b.WriteString("Available tools:\n\n")

	for _, tool := range tools {
		b.WriteString(fmt.Sprintf("- %s(%s): %s\n", tool.Name, signature(tool), tool.Description))
		for _, p := range tool.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			b.WriteString(fmt.Sprintf("    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description))
		}
	}

	b.WriteString(fmt.Sprintf(
		"\nWhen you are done, you MUST call %s(\"<desired output format>\") to finish. Do not stop calling tools until you have called %s.\n",
		TerminationToolName, TerminationToolName))
	return b.String()
}

func signature(tool *Definition) string {
	parts := make([]string, 0, len(tool.Params))
	for _, p := range tool.Params {
		name := p.Name
		if !p.Required {
			name += "?"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}

// Run executes the feedback loop until the model calls the termination tool,
// a tool-free reply yields a final answer, or the iteration cap is hit (a
// distinct MAX_ITERATIONS failure, never a best-effort guess).
func (l *Loop) Run(ctx context.Context, req Request) (*LoopResult, error) {
	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	registry := NewRegistry()
	hasFinish := false
	for _, tool := range req.Tools {
		if tool.Name == TerminationToolName {
			hasFinish = true
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	if !hasFinish {
		registry.MustRegister(FinishTool())
	}

	baseSystem := strings.TrimSpace(req.SystemPrompt) + "\n\n" + GenerateToolPrompt(registry.All())
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: baseSystem},
		{Role: llm.RoleUser, Content: req.UserPrompt},
	}

	result := &LoopResult{}
	for iteration := 1; iteration <= maxIterations; iteration++ {
		result.Iterations = iteration

		resp, err := l.client.CreateChatCompletion(ctx, history, req.Options)
		if err != nil {
			return nil, fmt.Errorf("model request failed on iteration %d: %w", iteration, err)
		}
		content := resp.Content()
		history = append(history, llm.Message{Role: llm.RoleAssistant, Content: content})

		calls := Parse(content, l.logger)
		l.logger.Debug("feedback loop iteration",
			zap.Int("iteration", iteration),
			zap.Int("tool_calls", len(calls)))

		if len(calls) == 0 {
			if iteration == 1 {
				// The model is still orienting itself; nudge it onward.
				history = append(history, llm.Message{
					Role:    llm.RoleUser,
					Content: "Use the provided tools, or call " + TerminationToolName + " when you are done.",
				})
				continue
			}
			result.RawText = content
			result.Output = parseStructured(content)
			return result, nil
		}

		if finish := findTermination(calls); finish != nil {
			// Termination wins unconditionally; other calls in the same
			// reply are ignored.
			formatResult := Execute(ctx, registry, *finish)
			result.ToolResults = append(result.ToolResults, formatResult)
			format, _ := formatResult.Value.(string)
			return l.finalAnswer(ctx, req, history, baseSystem, format, result)
		}

		batch := ExecuteBatch(ctx, registry, calls)
		result.ToolResults = append(result.ToolResults, batch...)
		history = append(history, llm.Message{
			Role:    llm.RoleUser,
			Content: summarize(batch),
		})
	}

	return nil, errors.NewMaxIterations(maxIterations)
}

// finalAnswer issues the one post-termination request with the system prompt
// amended to demand the requested format, over the full history.
func (l *Loop) finalAnswer(ctx context.Context, req Request, history []llm.Message, baseSystem, format string, result *LoopResult) (*LoopResult, error) {
	amended := baseSystem
	if format != "" {
		amended += "\n\nProduce your final answer now, strictly in this format, with no surrounding commentary:\n" + format
	} else {
		amended += "\n\nProduce your final answer now."
	}

	final := make([]llm.Message, len(history))
	copy(final, history)
	final[0] = llm.Message{Role: llm.RoleSystem, Content: amended}

	resp, err := l.client.CreateChatCompletion(ctx, final, req.Options)
	if err != nil {
		return nil, fmt.Errorf("final format request failed: %w", err)
	}
	result.Iterations++
	result.RawText = resp.Content()
	result.Output = parseStructured(result.RawText)
	return result, nil
}

func findTermination(calls []Call) *Call {
	for i := range calls {
		if calls[i].Name == TerminationToolName {
			return &calls[i]
		}
	}
	return nil
}

// summarize renders a batch of tool results as the synthesized user message
// fed back to the model.
func summarize(results []Result) string {
	var b strings.Builder
	b.WriteString("Tool results:\n")
	for _, r := range results {
		if r.Success {
			b.WriteString(fmt.Sprintf("- %s: %s\n", r.ToolName, renderValue(r.Value)))
		} else {
			b.WriteString(fmt.Sprintf("- %s failed: %s\n", r.ToolName, r.Error))
		}
	}
	b.WriteString("\nContinue, or call " + TerminationToolName + " when you are done.")
	return b.String()
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "(no output)"
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// parseStructured attempts to read a final reply as JSON, tolerating a
// fenced code block around it; unparseable text comes back verbatim.
func parseStructured(text string) any {
	trimmed := strings.TrimSpace(text)
	if after, ok := strings.CutPrefix(trimmed, "```json"); ok {
		trimmed = after
	} else if after, ok := strings.CutPrefix(trimmed, "```"); ok {
		trimmed = after
	}
	trimmed = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return v
		}
	}
	return text
}
