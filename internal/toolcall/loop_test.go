package toolcall

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/llm"
)

func notePadTool(notes *[]string) *Definition {
	return &Definition{
		Name:        "note",
		Description: "record a note",
		Params:      []Param{{Name: "text", Type: TypeString, Required: true}},
		Execute: func(ctx context.Context, args []any) (any, error) {
			*notes = append(*notes, args[0].(string))
			return "noted", nil
		},
	}
}

func TestLoopTerminatesViaFinish(t *testing.T) {
	var notes []string
	client := &llm.Fake{Replies: []string{
		fenced(`return note("first observation");`),
		fenced(`return finish("a JSON object with key summary");`),
		`{"summary": "done"}`,
	}}

	loop := NewLoop(client, nil)
	res, err := loop.Run(context.Background(), Request{
		SystemPrompt: "You study seeds.",
		UserPrompt:   "Look at this seed.",
		Tools:        []*Definition{notePadTool(&notes)},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"first observation"}, notes)

	out, ok := res.Output.(map[string]any)
	require.True(t, ok, "valid JSON final reply should be parsed")
	require.Equal(t, "done", out["summary"])
	require.Equal(t, 3, res.Iterations, "two loop iterations plus the final format request")

	// The final request's system prompt demands the requested format.
	lastCall := client.Calls[len(client.Calls)-1]
	require.Equal(t, llm.RoleSystem, lastCall[0].Role)
	require.Contains(t, lastCall[0].Content, "a JSON object with key summary")
}

func TestLoopFinalReplyNotJSONFallsBackToRawText(t *testing.T) {
	client := &llm.Fake{Replies: []string{
		fenced(`return finish("plain prose");`),
		"Just some prose, not JSON.",
	}}

	loop := NewLoop(client, nil)
	res, err := loop.Run(context.Background(), Request{UserPrompt: "go"})
	require.NoError(t, err)
	require.Equal(t, "Just some prose, not JSON.", res.Output)
	require.Equal(t, "Just some prose, not JSON.", res.RawText)
}

func TestLoopMaxIterationsIsDistinctFailure(t *testing.T) {
	var notes []string
	// The model never finishes: every reply is a non-terminating call.
	client := &llm.Fake{Replies: []string{fenced(`return note("again");`)}}

	loop := NewLoop(client, nil)
	_, err := loop.Run(context.Background(), Request{
		UserPrompt:    "go",
		Tools:         []*Definition{notePadTool(&notes)},
		MaxIterations: 2,
	})
	require.Error(t, err)
	require.True(t, errors.IsMaxIterations(err), "want MAX_ITERATIONS, got %v", err)
	require.Equal(t, 2, client.CallCount(), "exactly two iterations, never a hang")
	require.Len(t, notes, 2)
}

func TestLoopFirstIterationWithoutCallsLoopsAgain(t *testing.T) {
	client := &llm.Fake{Replies: []string{
		"Let me think about this first.",
		fenced(`return finish("anything");`),
		"final text",
	}}

	loop := NewLoop(client, nil)
	res, err := loop.Run(context.Background(), Request{UserPrompt: "go"})
	require.NoError(t, err)
	require.Equal(t, "final text", res.RawText)
}

func TestLoopLaterCallFreeReplyIsTheAnswer(t *testing.T) {
	var notes []string
	client := &llm.Fake{Replies: []string{
		fenced(`return note("x");`),
		`["a", "b"]`,
	}}

	loop := NewLoop(client, nil)
	res, err := loop.Run(context.Background(), Request{
		UserPrompt: "go",
		Tools:      []*Definition{notePadTool(&notes)},
	})
	require.NoError(t, err)
	arr, ok := res.Output.([]any)
	require.True(t, ok)
	require.Equal(t, []any{"a", "b"}, arr)
}

func TestLoopFeedsToolResultsBack(t *testing.T) {
	var notes []string
	client := &llm.Fake{Replies: []string{
		fenced(`return note("hello");`) + "\n" + fenced(`return ghost();`),
		fenced(`return finish("text");`),
		"done",
	}}

	loop := NewLoop(client, nil)
	res, err := loop.Run(context.Background(), Request{
		UserPrompt: "go",
		Tools:      []*Definition{notePadTool(&notes)},
	})
	require.NoError(t, err)

	// Second request carries a synthesized user message with both outcomes.
	second := client.Calls[1]
	feedback := second[len(second)-1]
	require.Equal(t, llm.RoleUser, feedback.Role)
	require.Contains(t, feedback.Content, "note: noted")
	require.Contains(t, feedback.Content, "ghost failed")

	// The loop accumulated every result: note, ghost, and finish.
	require.Len(t, res.ToolResults, 3)
}

func TestLoopTerminationIgnoresSiblingCalls(t *testing.T) {
	var notes []string
	client := &llm.Fake{Replies: []string{
		fenced(`return finish("text");`) + "\n" + fenced(`return note("should not run");`),
		"done",
	}}

	loop := NewLoop(client, nil)
	_, err := loop.Run(context.Background(), Request{
		UserPrompt: "go",
		Tools:      []*Definition{notePadTool(&notes)},
	})
	require.NoError(t, err)
	require.Empty(t, notes, "calls alongside the termination call are ignored")
}

func TestLoopToolPromptDescribesTools(t *testing.T) {
	var notes []string
	client := &llm.Fake{Replies: []string{
		fenced(`return finish("x");`),
		"done",
	}}

	loop := NewLoop(client, nil)
	_, err := loop.Run(context.Background(), Request{
		SystemPrompt: "Base prompt.",
		UserPrompt:   "go",
		Tools:        []*Definition{notePadTool(&notes)},
	})
	require.NoError(t, err)

	system := client.Calls[0][0]
	require.Equal(t, llm.RoleSystem, system.Role)
	require.True(t, strings.HasPrefix(system.Content, "Base prompt."))
	require.Contains(t, system.Content, "note(text)")
	require.Contains(t, system.Content, TerminationToolName)
	require.Contains(t, system.Content, FenceMarker)
}

func TestGenerateToolPromptSignatures(t *testing.T) {
	prompt := GenerateToolPrompt([]*Definition{WgetTool(), FinishTool()})
	require.Contains(t, prompt, "wget(url, timeoutMs?)")
	require.Contains(t, prompt, "finish(outputFormat)")
	require.Contains(t, prompt, "url (string, required)")
	require.Contains(t, prompt, "timeoutMs (number, optional)")
}

func TestLoopModelErrorPropagates(t *testing.T) {
	client := &llm.Fake{Err: context.DeadlineExceeded}
	loop := NewLoop(client, nil)
	_, err := loop.Run(context.Background(), Request{UserPrompt: "go"})
	require.Error(t, err)
	require.False(t, errors.IsMaxIterations(err))
}
