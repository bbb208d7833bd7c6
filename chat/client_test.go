package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func collectFragments(t *testing.T, sequence func(func(string) bool)) []string {
	t.Helper()
	var fragments []string
	for fragment := range sequence {
		fragments = append(fragments, fragment)
	}
	return fragments
}

func testClient(url string, hint string) *Client {
	return New(Config{
		BaseURL:      url,
		Model:        "test-model",
		ProviderHint: hint,
		APIKey:       "test-key",
	})
}

// TestChatStreaming_OpenAI_CumulativeFragments verifies SSE chunks are
// forwarded as cumulative text-so-far, not deltas.
func TestChatStreaming_OpenAI_CumulativeFragments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"Once"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":" upon"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":" a time"}}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	expected := []string{"Once", "Once upon", "Once upon a time"}
	if len(fragments) != len(expected) {
		t.Fatalf("expected %d fragments, got %d: %v", len(expected), len(fragments), fragments)
	}
	for i, fragment := range expected {
		if fragments[i] != fragment {
			t.Errorf("fragment %d: expected %q, got %q", i, fragment, fragments[i])
		}
	}
}

// TestChatStreaming_Anthropic_FiltersEventsAndSendsHeaders verifies that
// only content deltas contribute and the dialect's fixed headers are sent.
func TestChatStreaming_Anthropic_FiltersEventsAndSendsHeaders(t *testing.T) {
	var gotAPIKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")

		_, _ = io.WriteString(w, "event: message_start\n")
		_, _ = io.WriteString(w, `data: {"type":"message_start","message":{"usage":{"input_tokens":5}}}`+"\n\n")
		_, _ = io.WriteString(w, "event: content_block_delta\n")
		_, _ = io.WriteString(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"The "}}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"cave"}}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"type":"message_stop"}`+"\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "anthropic")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) != 2 || fragments[1] != "The cave" {
		t.Errorf("expected cumulative fragments ending in %q, got %v", "The cave", fragments)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("expected x-api-key header, got %q", gotAPIKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("expected anthropic-version %q, got %q", anthropicVersion, gotVersion)
	}
}

// TestChatStreaming_Ollama_NDJSON verifies line-delimited JSON framing with
// the done flag.
func TestChatStreaming_Ollama_NDJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":{"content":"A dragon"},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"message":{"content":" appears"},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"message":{"content":""},"done":true}`+"\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "ollama")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) == 0 {
		t.Fatal("expected fragments, got none")
	}
	if final := fragments[len(fragments)-1]; final != "A dragon appears" {
		t.Errorf("expected final fragment %q, got %q", "A dragon appears", final)
	}
}

// TestChatStreaming_MalformedLines_SkippedNotFatal verifies that undecodable
// lines do not abort the stream.
func TestChatStreaming_MalformedLines_SkippedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"Start"}}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: %%% not json %%%\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":" end"}}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) == 0 {
		t.Fatal("expected fragments despite malformed line")
	}
	if final := fragments[len(fragments)-1]; final != "Start end" {
		t.Errorf("expected %q, got %q", "Start end", final)
	}
}

// TestChatStreaming_RequestFails_FallsBackToSync verifies the one-shot
// degradation to a non-streaming request when the streaming call fails
// before any bytes arrive.
func TestChatStreaming_RequestFails_FallsBackToSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)

		if payload["stream"] == true {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"full response"}}]}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) != 1 || fragments[0] != "full response" {
		t.Errorf("expected single sync-fallback fragment, got %v", fragments)
	}
}

// TestChatStreaming_TotalFailure_YieldsDiagnostic verifies the caller always
// receives a displayable fragment even when both paths fail.
func TestChatStreaming_TotalFailure_YieldsDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) != 1 {
		t.Fatalf("expected exactly one diagnostic fragment, got %v", fragments)
	}
	if strings.TrimSpace(fragments[0]) == "" {
		t.Error("diagnostic fragment must not be empty")
	}
	if !strings.Contains(fragments[0], diagnosticPrefix) {
		t.Errorf("expected diagnostic text, got %q", fragments[0])
	}
}

// TestChatStreaming_EmptyStream_YieldsFallback verifies a stream that
// produces no content still yields one non-empty fragment.
func TestChatStreaming_EmptyStream_YieldsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}))

	if len(fragments) != 1 || fragments[0] != fallbackEmptyStream {
		t.Errorf("expected fallback sentence, got %v", fragments)
	}
}

// TestChatStreaming_FinalTurn_SingleCompleteFragment verifies the final turn
// performs one non-streaming round trip, emits exactly one fragment, and
// caps the token budget on the wire.
func TestChatStreaming_FinalTurn_SingleCompleteFragment(t *testing.T) {
	var sawStream any
	var sawMaxTokens float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		sawStream = payload["stream"]
		if maxTokens, ok := payload["max_tokens"].(float64); ok {
			sawMaxTokens = maxTokens
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"And they lived happily ever after."}}]}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{Final: true}))

	if len(fragments) != 1 || fragments[0] != "And they lived happily ever after." {
		t.Errorf("expected single complete fragment, got %v", fragments)
	}
	if sawStream != false {
		t.Errorf("final turn must be non-streaming, stream=%v", sawStream)
	}
	if sawMaxTokens > finalTurnMaxTokens {
		t.Errorf("final-turn budget %v exceeds cap %d", sawMaxTokens, finalTurnMaxTokens)
	}
}

// TestChatStreaming_FinalTurn_EmptyUpstream verifies the canned conclusion
// replaces an empty final response.
func TestChatStreaming_FinalTurn_EmptyUpstream_YieldsCannedEnding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":""}}]}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	fragments := collectFragments(t, client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{Final: true}))

	if len(fragments) != 1 || fragments[0] != fallbackEmptyEnding {
		t.Errorf("expected canned conclusion, got %v", fragments)
	}
}

// TestChat_Non2xx_ReturnsError verifies the sync operation reports upstream
// failures as errors.
func TestChat_Non2xx_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"bad key"}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	if _, err := client.Chat(context.Background(), sampleConversation(), TurnOptions{}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

// TestChat_NoContentPath_ReturnsError verifies an unrecognized response
// shape yields an error, not empty success.
func TestChat_NoContentPath_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"surprising":"shape"}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	_, err := client.Chat(context.Background(), sampleConversation(), TurnOptions{})
	if err == nil {
		t.Fatal("expected error when no content path resolves")
	}
	if !strings.Contains(err.Error(), "no content found") {
		t.Errorf("unexpected error text: %v", err)
	}
}

// TestTestConnection_Reachable verifies the structured success result with a
// clamped probe budget.
func TestTestConnection_Reachable_ReportsDialectAndPreview(t *testing.T) {
	var sawMaxTokens float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		if maxTokens, ok := payload["max_tokens"].(float64); ok {
			sawMaxTokens = maxTokens
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"loud and clear"}}]}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	status := client.TestConnection(context.Background())

	if !status.Connected {
		t.Fatalf("expected connected, got %+v", status)
	}
	if status.Dialect != DialectOpenAI {
		t.Errorf("expected openai dialect, got %q", status.Dialect)
	}
	if !strings.Contains(status.Preview, "loud and clear") {
		t.Errorf("expected reply preview, got %q", status.Preview)
	}
	if sawMaxTokens != testConnectionMaxTokens {
		t.Errorf("expected clamped probe budget %d, got %v", testConnectionMaxTokens, sawMaxTokens)
	}
}

// TestTestConnection_Unreachable verifies the failure result carries an
// error description and never an error value.
func TestTestConnection_Unreachable_ReportsError(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1/api/chat", Model: "m", ProviderHint: "ollama"})
	status := client.TestConnection(context.Background())

	if status.Connected {
		t.Fatal("expected unreachable status")
	}
	if status.Error == "" {
		t.Error("expected error description")
	}
	if status.Dialect != DialectOllama {
		t.Errorf("expected detected dialect in failure result, got %q", status.Dialect)
	}
}

// TestChatStreaming_EarlyStop_Abandons verifies stopping iteration early
// does not hang or panic.
func TestChatStreaming_EarlyStop_Abandons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"x"}}]}`+"\n\n")
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := testClient(server.URL, "openai")
	count := 0
	for range client.ChatStreaming(context.Background(), sampleConversation(), TurnOptions{}) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("expected to stop after 3 fragments, got %d", count)
	}
}
