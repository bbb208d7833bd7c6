package chat

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fablekit/fable/internal/utils"
)

// defaultTimeout bounds every HTTP request when no timeout is configured.
const defaultTimeout = 120 * time.Second

// Displayable degradation text. The streaming operation never propagates an
// error past the client boundary; these are what the caller sees instead.
const (
	fallbackEmptyStream  = "The narrator falls silent for a moment, then the story carries on."
	fallbackEmptyEnding  = "And so the adventure reaches its quiet end, the tale complete at last."
	diagnosticPrefix     = "The connection to the storyteller failed"
	testConnectionPrompt = "Reply with a single short sentence confirming you can hear me."
)

// testConnectionMaxTokens clamps the token budget of the connection probe.
const testConnectionMaxTokens = 16

// Config describes one client instance. URL and provider changes require a
// new client: the detected dialect is memoized per instance.
type Config struct {
	// BaseURL is the full chat-completion endpoint URL.
	BaseURL string
	// Model is the model identifier sent on every request.
	Model string
	// ProviderHint optionally forces dialect detection; "auto" or empty
	// defers to URL and model-name signals.
	ProviderHint string
	// APIKey is the explicit credential; when empty the dialect's own
	// environment variable and then LLM_API_KEY are consulted.
	APIKey string
	// Timeout bounds each HTTP request. Zero means the 120s default.
	Timeout time.Duration
	// Generation carries the sampling parameters for non-final turns.
	Generation GenerationConfig
	// FinalMaxTokens overrides the final-turn token budget. Zero means the
	// built-in bound.
	FinalMaxTokens int
	// HTTPClient overrides the transport, for tests and custom transports.
	HTTPClient *http.Client
}

// Client is a provider-adaptive chat-completion client. It is safe to share
// across goroutines: all mutable state is the write-once detected-dialect
// cache.
type Client struct {
	cfg        Config
	httpClient *http.Client

	detectOnce sync.Once
	dialect    Dialect
}

// New constructs a [Client] from the given configuration, applying the
// default timeout when none is set.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Dialect returns the detected wire dialect for this client. Detection runs
// once on first use and the result is cached for the client's lifetime.
func (client *Client) Dialect() Dialect {
	client.detectOnce.Do(func() {
		client.dialect = DetectDialect(client.cfg.BaseURL, client.cfg.ProviderHint, client.cfg.Model)
		slog.Debug("detected chat dialect",
			"dialect", string(client.dialect),
			"url", client.cfg.BaseURL,
			"model", client.cfg.Model,
		)
	})
	return client.dialect
}

// Info returns the client's effective configuration for diagnostics.
func (client *Client) Info() Info {
	return Info{
		BaseURL: client.cfg.BaseURL,
		Model:   client.cfg.Model,
		Dialect: client.Dialect(),
	}
}

// Chat performs a single synchronous round trip and returns the extracted
// assistant text. A non-2xx status, transport failure, or a response in
// which no content path resolves yields an error; the error text is bounded
// and displayable so callers can surface it directly.
func (client *Client) Chat(ctx context.Context, messages []Message, turn TurnOptions) (string, error) {
	profile := ProfileFor(client.Dialect())
	payload := buildPayload(profile, client.cfg.Model, messages, client.cfg.Generation, false, turn, client.cfg.FinalMaxTokens)
	slog.Debug("sending chat request", "url", client.cfg.BaseURL, "payload", utils.JSONToString(payload))

	_, body, err := utils.DoPostJSON(ctx, client.httpClient, client.cfg.BaseURL, payload, buildHeaders(profile, client.cfg.APIKey)...)
	if err != nil {
		return "", err
	}

	content := extractResponseContent(profile, body)
	if content == "" {
		return "", fmt.Errorf("no content found in response: %s", utils.TruncateString(string(body), 200))
	}
	return content, nil
}

// ChatStreaming returns the model's response as a pull-based sequence of
// text fragments. Each fragment is the cumulative text so far, not a delta,
// so callers can re-render the full message on every pull.
//
// Contract:
//   - The sequence always yields at least one fragment, and the final
//     fragment is never empty or whitespace-only.
//   - On the final turn the call is internally non-streaming: one fragment
//     carries the entire response (or a canned conclusion when the upstream
//     returns nothing).
//   - A streaming request that fails before any bytes arrive falls back once
//     to a non-streaming request with the stream flag cleared.
//   - Undecodable lines are skipped; transport or parse failures after that
//     degrade to a single diagnostic fragment, never a panic or error.
//   - Stopping iteration early abandons the request; each call issues one
//     fresh request and is not restartable.
func (client *Client) ChatStreaming(ctx context.Context, messages []Message, turn TurnOptions) iter.Seq[string] {
	return func(yield func(string) bool) {
		if turn.Final {
			client.streamFinalTurn(ctx, messages, yield)
			return
		}
		client.streamIncremental(ctx, messages, yield)
	}
}

// streamFinalTurn performs the complete, non-streaming round trip used on
// the conversation-ending turn and yields exactly one fragment.
func (client *Client) streamFinalTurn(ctx context.Context, messages []Message, yield func(string) bool) {
	content, err := client.Chat(ctx, messages, TurnOptions{Final: true})
	if err != nil {
		slog.Warn("final-turn request failed, using canned conclusion", "error", err.Error())
		yield(fallbackEmptyEnding)
		return
	}
	if strings.TrimSpace(content) == "" {
		yield(fallbackEmptyEnding)
		return
	}
	yield(content)
}

// streamIncremental issues the streaming HTTP request and forwards
// cumulative fragments as chunks decode.
func (client *Client) streamIncremental(ctx context.Context, messages []Message, yield func(string) bool) {
	profile := ProfileFor(client.Dialect())
	payload := buildPayload(profile, client.cfg.Model, messages, client.cfg.Generation, true, TurnOptions{}, client.cfg.FinalMaxTokens)

	response, err := utils.DoPostStream(ctx, client.httpClient, client.cfg.BaseURL, payload, buildHeaders(profile, client.cfg.APIKey)...)
	if err != nil {
		// The request failed before any bytes arrived: fall back once to a
		// non-streaming request with the same conversation.
		slog.Warn("streaming request failed, falling back to non-streaming", "error", err.Error())
		content, syncErr := client.Chat(ctx, messages, TurnOptions{})
		if syncErr != nil || strings.TrimSpace(content) == "" {
			yield(client.diagnostic(err))
			return
		}
		yield(content)
		return
	}
	defer utils.CloseWithLog(response.Body)

	scanner := utils.NewStreamScanner(response.Body, profile.StreamTerminator)
	var accumulated strings.Builder
	produced := false

	for {
		if ctx.Err() != nil {
			if !produced {
				yield(client.diagnostic(ctx.Err()))
			}
			return
		}

		line, scanErr := scanner.Next()
		if scanErr == io.EOF {
			break
		}
		if scanErr != nil {
			// Mid-stream read failure: keep whatever content already went
			// out; if nothing did, surface a diagnostic fragment.
			slog.Warn("stream read failed mid-response", "error", scanErr.Error())
			if !produced {
				yield(client.diagnostic(scanErr))
				return
			}
			break
		}

		text, done := decodeChunk(profile, line)
		if text != "" {
			accumulated.WriteString(text)
			produced = true
			if !yield(accumulated.String()) {
				return
			}
		}
		if done {
			break
		}
	}

	if !produced {
		yield(fallbackEmptyStream)
	}
}

// diagnostic converts an internal failure into a single displayable fragment.
func (client *Client) diagnostic(err error) string {
	return fmt.Sprintf("%s: %s", diagnosticPrefix, utils.TruncateString(err.Error(), 200))
}

// TestConnection issues a minimal probe request with a clamped token budget
// and reports reachability, the detected dialect, and either a short reply
// preview or an error description. It never returns an error.
func (client *Client) TestConnection(ctx context.Context) ConnectionStatus {
	dialect := client.Dialect()
	profile := ProfileFor(dialect)

	probeMessages := []Message{{Role: RoleUser, Content: testConnectionPrompt}}
	payload := buildPayload(profile, client.cfg.Model, probeMessages,
		GenerationConfig{MaxTokens: testConnectionMaxTokens}, false, TurnOptions{}, client.cfg.FinalMaxTokens)

	_, body, err := utils.DoPostJSON(ctx, client.httpClient, client.cfg.BaseURL, payload, buildHeaders(profile, client.cfg.APIKey)...)
	if err != nil {
		return ConnectionStatus{
			Connected: false,
			Dialect:   dialect,
			Status:    "connection test failed",
			Error:     utils.TruncateString(err.Error(), 200),
		}
	}

	content := extractResponseContent(profile, body)
	if content == "" {
		return ConnectionStatus{
			Connected: false,
			Dialect:   dialect,
			Status:    "connection test failed",
			Error:     "no content found in probe response",
		}
	}

	return ConnectionStatus{
		Connected: true,
		Dialect:   dialect,
		Status:    fmt.Sprintf("reachable, speaking the %s dialect", dialect),
		Preview:   utils.TruncateString(content, 120),
	}
}
