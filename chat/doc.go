// Package chat implements a provider-adaptive chat-completion client. It
// talks to several incompatible HTTP chat APIs (OpenAI-compatible, Anthropic
// Messages, Ollama) behind one interface, auto-detecting which wire dialect
// it is speaking from the configured URL, an explicit provider hint, or the
// model name, in that priority order.
//
// The closed set of supported dialects is described by [DialectProfile]
// values: static data carrying each backend's authentication convention,
// payload shaping rules, stream framing, and the ordered JSON paths used to
// extract content from arbitrarily-shaped responses.
//
// [Client.Chat] performs a single synchronous round trip. [Client.ChatStreaming]
// returns a pull-based sequence of text fragments; fragments are cumulative
// text-so-far rather than deltas, so callers can re-render the whole message
// on every pull. The streaming operation never fails past its own boundary:
// transport and parse failures degrade to fallback or diagnostic text so the
// caller always receives something to display.
package chat
