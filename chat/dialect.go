package chat

// Dialect identifies one backend family's request/response JSON shape and
// authentication convention. The set is closed: payload and header builders
// switch over the tag rather than consulting runtime string lookups.
type Dialect string

const (
	// DialectOpenAI is the OpenAI chat completions shape, the most widely
	// replicated dialect and the detection default.
	DialectOpenAI Dialect = "openai"
	// DialectAnthropic is Anthropic's Messages API: system prompt as a
	// top-level field, mandatory max_tokens, x-api-key auth, typed SSE events.
	DialectAnthropic Dialect = "anthropic"
	// DialectOllama is the local Ollama /api/chat shape: no authentication,
	// line-delimited JSON streaming with a "done" flag.
	DialectOllama Dialect = "ollama"
	// DialectGroq is Groq's hosted OpenAI-compatible endpoint. It shares the
	// OpenAI wire shape but truncates output unless max_tokens is explicit.
	DialectGroq Dialect = "groq"
	// DialectOpenRouter is OpenRouter's hosted OpenAI-compatible endpoint,
	// with the same explicit max_tokens requirement as Groq.
	DialectOpenRouter Dialect = "openrouter"
)

// StreamFraming identifies how a dialect frames incremental responses.
type StreamFraming int

const (
	// FramingSSE is Server-Sent Events: payloads on "data:" lines.
	FramingSSE StreamFraming = iota
	// FramingNDJSON is line-delimited JSON: one bare object per line.
	FramingNDJSON
)

// anthropicVersion is the required anthropic-version header value. Anthropic
// uses this to version-lock response formats independently of the URL.
const anthropicVersion = "2023-06-01"

// genericKeyEnvVar is the last-resort environment variable consulted when
// neither the configured key nor the dialect's own variable yields one.
const genericKeyEnvVar = "LLM_API_KEY"

// DialectProfile is the static wire contract for one dialect: detection
// signals, authentication convention, payload shaping flags, stream framing,
// and the ordered JSON paths tried when extracting content. Profiles are
// read-only after construction and shared across clients.
type DialectProfile struct {
	Dialect Dialect

	// Detection signals, strongest first: URL substrings, explicit-name
	// aliases, model-name substrings.
	URLSubstrings   []string
	Aliases         []string
	ModelSubstrings []string

	// AuthHeader is the header carrying the credential; empty means the
	// dialect is unauthenticated. AuthScheme is a value prefix such as
	// "Bearer " and may be empty.
	AuthHeader string
	AuthScheme string
	// KeyEnvVar is the dialect-specific environment variable consulted when
	// no key is configured on the client.
	KeyEnvVar string
	// ExtraHeaders are fixed headers required on every request.
	ExtraHeaders map[string]string

	// SystemTopLevel indicates the system prompt must be extracted from the
	// messages array and sent as a separate top-level field.
	SystemTopLevel bool
	// RequireMaxTokens indicates max_tokens must always be present on the
	// request, injected with a default when the caller did not set one.
	RequireMaxTokens bool
	// ParamsInOptions indicates sampling parameters nest under an "options"
	// object (Ollama) instead of sitting at the top level.
	ParamsInOptions bool

	Framing StreamFraming
	// StreamTerminator is the sentinel payload ending iteration, or empty.
	StreamTerminator string
	// DoneFlagPath is a JSON path to a boolean end-of-stream marker carried
	// inside chunks (Ollama's "done"), or empty.
	DoneFlagPath string

	// StreamContentPaths and ResponseContentPaths are the ordered JSON paths
	// tried when extracting text from streamed chunks and whole responses;
	// the first path resolving to a non-empty string wins.
	StreamContentPaths   []string
	ResponseContentPaths []string
}

// defaultMaxTokens is injected when a dialect requires an explicit cap and
// the caller did not configure one.
const defaultMaxTokens = 1024

// detectionOrder fixes the priority in which profiles are matched. More
// specific URL patterns come before dialects with generic patterns (Ollama's
// "/api/chat" would otherwise shadow nothing, but port and path substrings
// are the weakest URL signals so it is checked last).
var detectionOrder = []Dialect{
	DialectOpenAI,
	DialectAnthropic,
	DialectGroq,
	DialectOpenRouter,
	DialectOllama,
}

// profiles is the process-wide dialect lookup table, read-only after init.
var profiles = map[Dialect]*DialectProfile{
	DialectOpenAI: {
		Dialect:          DialectOpenAI,
		URLSubstrings:    []string{"api.openai.com", "openai.azure.com"},
		Aliases:          []string{"openai", "azure"},
		ModelSubstrings:  []string{"gpt-", "o1-", "o3-", "o4-", "chatgpt"},
		AuthHeader:       "Authorization",
		AuthScheme:       "Bearer ",
		KeyEnvVar:        "OPENAI_API_KEY",
		Framing:          FramingSSE,
		StreamTerminator: "[DONE]",
		StreamContentPaths: []string{
			"choices.0.delta.content",
			"choices.0.message.content",
			"message.content",
		},
		ResponseContentPaths: []string{
			"choices.0.message.content",
			"choices.0.text",
			"message.content",
		},
	},
	DialectAnthropic: {
		Dialect:          DialectAnthropic,
		URLSubstrings:    []string{"api.anthropic.com", "anthropic"},
		Aliases:          []string{"anthropic", "claude"},
		ModelSubstrings:  []string{"claude"},
		AuthHeader:       "x-api-key",
		KeyEnvVar:        "ANTHROPIC_API_KEY",
		ExtraHeaders:     map[string]string{"anthropic-version": anthropicVersion},
		SystemTopLevel:   true,
		RequireMaxTokens: true,
		Framing:          FramingSSE,
		// Anthropic streams typed events; only content_block_delta events
		// contribute text, filtered in the decode step before these paths.
		StreamContentPaths: []string{
			"delta.text",
		},
		// Whole responses carry a content-block list, handled by the block
		// join in extractResponseContent; "completion" covers the legacy
		// text-completions shape some proxies still emit.
		ResponseContentPaths: []string{
			"completion",
		},
	},
	DialectOllama: {
		Dialect:         DialectOllama,
		URLSubstrings:   []string{"localhost:11434", "127.0.0.1:11434", ":11434", "/api/chat"},
		Aliases:         []string{"ollama", "local"},
		ModelSubstrings: []string{"llama", "mistral", "gemma", "qwen", "phi", "deepseek"},
		ParamsInOptions: true,
		Framing:         FramingNDJSON,
		DoneFlagPath:    "done",
		StreamContentPaths: []string{
			"message.content",
			"response",
		},
		ResponseContentPaths: []string{
			"message.content",
			"response",
		},
	},
	DialectGroq: {
		Dialect:          DialectGroq,
		URLSubstrings:    []string{"api.groq.com", "groq"},
		Aliases:          []string{"groq"},
		AuthHeader:       "Authorization",
		AuthScheme:       "Bearer ",
		KeyEnvVar:        "GROQ_API_KEY",
		RequireMaxTokens: true,
		Framing:          FramingSSE,
		StreamTerminator: "[DONE]",
		StreamContentPaths: []string{
			"choices.0.delta.content",
			"choices.0.message.content",
		},
		ResponseContentPaths: []string{
			"choices.0.message.content",
		},
	},
	DialectOpenRouter: {
		Dialect:          DialectOpenRouter,
		URLSubstrings:    []string{"openrouter.ai", "openrouter"},
		Aliases:          []string{"openrouter"},
		AuthHeader:       "Authorization",
		AuthScheme:       "Bearer ",
		KeyEnvVar:        "OPENROUTER_API_KEY",
		RequireMaxTokens: true,
		Framing:          FramingSSE,
		StreamTerminator: "[DONE]",
		StreamContentPaths: []string{
			"choices.0.delta.content",
			"choices.0.message.content",
		},
		ResponseContentPaths: []string{
			"choices.0.message.content",
		},
	},
}

// ProfileFor returns the wire contract for the given dialect. Unknown tags
// fall back to the OpenAI profile, keeping the closed set total.
func ProfileFor(dialect Dialect) *DialectProfile {
	if profile, ok := profiles[dialect]; ok {
		return profile
	}
	return profiles[DialectOpenAI]
}
