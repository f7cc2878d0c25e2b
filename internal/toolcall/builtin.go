package toolcall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// TerminationToolName is the distinguished tool a model must call to end a
// feedback loop. Its single argument carries the desired output format.
const TerminationToolName = "finish"

// wgetMaxBody bounds how much of a fetched page is returned to the model.
const wgetMaxBody = 256 << 10

// FinishTool returns the termination tool definition. Its implementation
// just echoes the requested format; the loop driver gives it meaning.
func FinishTool() *Definition {
	return &Definition{
		Name:        TerminationToolName,
		Description: "Signal that you are done using tools. Pass a description of the output format you will produce.",
		Params: []Param{
			{Name: "outputFormat", Type: TypeString, Description: "The format the final answer should take", Required: true},
		},
		Execute: func(ctx context.Context, args []any) (any, error) {
			format, _ := args[0].(string)
			return format, nil
		},
	}
}

// WgetTool returns the built-in URL fetch tool. Ordinary HTTP and network
// failures come back as descriptive strings the model can read; only
// malformed input is an error.
func WgetTool() *Definition {
	return &Definition{
		Name:        "wget",
		Description: "Fetch the text content of a URL.",
		Params: []Param{
			{Name: "url", Type: TypeString, Description: "The http(s) URL to fetch", Required: true},
			{Name: "timeoutMs", Type: TypeNumber, Description: "Request timeout in milliseconds (default 30000)"},
		},
		Execute: func(ctx context.Context, args []any) (any, error) {
			rawURL, _ := args[0].(string)
			parsed, err := url.Parse(rawURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				return nil, fmt.Errorf("invalid URL: %q", rawURL)
			}

			timeout := 30 * time.Second
			if len(args) > 1 {
				if ms, ok := args[1].(float64); ok && ms > 0 {
					timeout = time.Duration(ms) * time.Millisecond
				}
			}

			reqCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, fmt.Errorf("invalid URL: %q", rawURL)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Sprintf("fetch failed: %v", err), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, wgetMaxBody))
			if err != nil {
				return fmt.Sprintf("fetch failed reading body: %v", err), nil
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Sprintf("fetch returned HTTP %d: %s", resp.StatusCode, string(body)), nil
			}
			return string(body), nil
		},
	}
}
