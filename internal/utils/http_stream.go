package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DoPostStream performs an HTTP POST request and returns the raw response with
// the body left open for incremental reading. The caller is responsible for
// closing the response body when done. On error paths the body is read and
// closed before returning.
//
// This follows the same pattern as DoPostJSON but does not consume the
// response body, enabling streaming consumption via StreamScanner.
func DoPostStream(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	response, err := httpClient.Do(req)
	if err != nil {
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	// For non-2xx responses, read the body and close it before returning the error
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			return response, fmt.Errorf("non-2xx status %d (failed to read body: %v)", response.StatusCode, readErr)
		}
		return response, fmt.Errorf("non-2xx status %d: %s", response.StatusCode, TruncateString(string(errorBody), 500))
	}

	return response, nil
}

// maxStreamLineSize is the maximum size of a single streamed line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for large
// events such as long completions. If a line exceeds this limit the scanner
// will return a wrapped bufio.ErrTooLong via the Next() error path.
const maxStreamLineSize = 1 * 1024 * 1024

// StreamScanner reads incremental payload lines from a streaming chat
// response body. It understands both wire framings used by chat-completion
// APIs: Server-Sent Events ("data: {...}" lines, as used by OpenAI-compatible
// and Anthropic endpoints) and bare line-delimited JSON (one object per line,
// as used by Ollama). SSE comments and empty lines are skipped, and an
// optional terminator sentinel (such as OpenAI's "[DONE]") ends iteration.
type StreamScanner struct {
	scanner    *bufio.Scanner
	terminator string
}

// NewStreamScanner creates a StreamScanner reading from the given reader.
// terminator is the sentinel payload that signals end of stream; pass an
// empty string when the dialect has no sentinel (iteration then ends on EOF
// or a dialect-level done flag handled by the caller).
func NewStreamScanner(reader io.Reader, terminator string) *StreamScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)
	return &StreamScanner{
		scanner:    scanner,
		terminator: terminator,
	}
}

// Next returns the next payload line as a string.
// It skips empty lines, SSE comment lines (starting with ':'), and SSE
// framing fields other than "data:" (event:, id:, retry:). "data:" prefixes
// are stripped; bare lines are returned as-is for line-delimited JSON
// dialects. Returns io.EOF when the stream is exhausted or the terminator
// sentinel is encountered.
func (streamScanner *StreamScanner) Next() (string, error) {
	for streamScanner.scanner.Scan() {
		line := streamScanner.scanner.Text()

		if line == "" {
			continue
		}

		// Skip SSE comments
		if strings.HasPrefix(line, ":") {
			continue
		}

		// Skip non-data SSE framing fields; the event type, when relevant,
		// is carried inside the JSON payload as well.
		if strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "id:") || strings.HasPrefix(line, "retry:") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if line == "" {
				continue
			}
		}

		if streamScanner.terminator != "" && line == streamScanner.terminator {
			return "", io.EOF
		}

		return line, nil
	}

	if err := streamScanner.scanner.Err(); err != nil {
		return "", fmt.Errorf("stream scanner error: %w", err)
	}

	return "", io.EOF
}
