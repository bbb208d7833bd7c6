package chat

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)

// Message represents a single message in a conversation. The ordered sequence
// of messages forms the conversation history sent to the provider.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// GenerationConfig carries the sampling parameters attached to outbound
// requests. Zero values mean "omit the field" except where a dialect requires
// an explicit cap (see DialectProfile.RequireMaxTokens).
type GenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"` // Sampling temperature [0..2]
	TopP        float64 `json:"top_p,omitempty"`       // Nucleus sampling [0..1]
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Maximum response tokens
}

// TurnOptions parameterises a single chat operation. Final marks the
// conversation-ending turn: it switches the client to a complete,
// non-streaming round trip and overrides the generation parameters with a
// bounded token budget so the conclusion is complete and option-free.
//
// Final is an explicit per-call parameter rather than client state, so there
// is no must-set-before-call ordering between collaborators.
type TurnOptions struct {
	Final bool
}

// ConnectionStatus is the structured result of [Client.TestConnection].
// It reports reachability and the detected dialect; Preview carries a short
// excerpt of the model's reply on success and Error a description on failure.
type ConnectionStatus struct {
	Connected bool    `json:"connected"`
	Dialect   Dialect `json:"dialect"`
	Status    string  `json:"status"`
	Preview   string  `json:"preview,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Info describes a client's effective configuration, for diagnostics and
// session metadata. It never includes the API key.
type Info struct {
	BaseURL string  `json:"base_url"`
	Model   string  `json:"model"`
	Dialect Dialect `json:"dialect"`
}
