package toolcall

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// FenceMarker opens a tool-call block in model output. The block closes with
// a plain code fence.
const FenceMarker = "```tool_code"

const fenceClose = "```"

// callPattern matches the single statement a block may contain:
// return name(args);
var callPattern = regexp.MustCompile(`(?s)\Areturn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*;?\z`)

// Parse scans free-text model output for tool-call blocks and returns the
// calls in document order. A block that is not a well-formed call, or whose
// arguments fail to parse, is dropped with a diagnostic log; it never fails
// the whole reply.
func Parse(text string, logger *zap.Logger) []Call {
	if logger == nil {
		logger = zap.NewNop()
	}

	var calls []Call
	rest := text
	for {
		start := strings.Index(rest, FenceMarker)
		if start < 0 {
			break
		}
		body := rest[start+len(FenceMarker):]
		end := strings.Index(body, fenceClose)
		if end < 0 {
			break
		}
		rest = body[end+len(fenceClose):]

		block := strings.TrimSpace(body[:end])
		call, err := parseBlock(block)
		if err != nil {
			logger.Debug("dropping malformed tool-call block",
				zap.String("block", block), zap.Error(err))
			continue
		}
		calls = append(calls, *call)
	}
	return calls
}

func parseBlock(block string) (*Call, error) {
	m := callPattern.FindStringSubmatch(block)
	if m == nil {
		return nil, fmt.Errorf("block is not of the form return name(args);")
	}

	tokens, err := splitArgs(m[2])
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(tokens))
	for _, token := range tokens {
		args = append(args, classify(token))
	}
	return &Call{Name: m[1], Args: args, Raw: block}, nil
}

// splitArgs splits a comma-separated argument list, respecting quoted
// strings (with escapes) and nested brackets/braces/parens. A comma inside a
// string or a nested structure is never a delimiter.
func splitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var tokens []string
	var current strings.Builder
	var quote rune
	escaped := false
	depth := 0

	for _, ch := range s {
		switch {
		case escaped:
			current.WriteRune(ch)
			escaped = false
		case quote != 0:
			current.WriteRune(ch)
			if ch == '\\' {
				escaped = true
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
			current.WriteRune(ch)
		case ch == '(' || ch == '[' || ch == '{':
			depth++
			current.WriteRune(ch)
		case ch == ')' || ch == ']' || ch == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in argument list")
			}
			current.WriteRune(ch)
		case ch == ',' && depth == 0:
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string in argument list")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in argument list")
	}
	tokens = append(tokens, strings.TrimSpace(current.String()))
	return tokens, nil
}

var numberPattern = regexp.MustCompile(`\A[+-]?[0-9]+(\.[0-9]+)?\z`)

// classify turns one argument token into a typed value. The classifiers run
// in a fixed order: quoted string, boolean, null/undefined, number,
// structured literal, raw-string fallback.
func classify(token string) any {
	if len(token) >= 2 {
		first := token[0]
		if (first == '"' || first == '\'') && token[len(token)-1] == first {
			return unescape(token[1 : len(token)-1])
		}
	}

	switch token {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}

	if numberPattern.MatchString(token) {
		if n, err := strconv.ParseFloat(token, 64); err == nil {
			return n
		}
	}

	if strings.HasPrefix(token, "{") || strings.HasPrefix(token, "[") {
		var v any
		if err := json.Unmarshal([]byte(token), &v); err == nil {
			return v
		}
		// Not valid JSON after all; hand the model's text through as-is.
		return token
	}

	return token
}

// unescape resolves backslash escapes: \x becomes x for any x.
func unescape(s string) string {
	var b strings.Builder
	escaped := false
	for _, ch := range s {
		if escaped {
			b.WriteRune(ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
