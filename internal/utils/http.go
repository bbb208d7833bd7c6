package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HeaderOption represents a single HTTP header to apply to an outbound request.
type HeaderOption struct {
	Key   string
	Value string
}

// maxResponseBodySize is the maximum response body size (10 MB). Enforced via
// io.LimitReader to prevent unbounded memory allocation from rogue responses.
const maxResponseBodySize int64 = 10 * 1024 * 1024

// DoPostJSON performs a synchronous HTTP POST with a JSON body and returns the
// HTTP status code together with the raw response body. Content extraction is
// path-based and dialect-specific, so the body is returned undecoded and the
// caller decides how to interpret it.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Transport errors (connection refused, DNS failure) return the error
//   - Non-2xx status codes return an error that embeds a bounded body preview
//   - Response body close errors are logged but never override the primary error
func DoPostJSON(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (int, []byte, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res.StatusCode, respBody, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, TruncateString(string(respBody), 500))
	}

	return res.StatusCode, respBody, nil
}

// CloseWithLog closes the given closer and logs a warning when closing fails.
// Close errors on response bodies are not actionable by callers, so they are
// recorded rather than returned.
func CloseWithLog(closer io.Closer) {
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
