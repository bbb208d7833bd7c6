package chat

import (
	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// firstPath returns the first of the given JSON paths that resolves to a
// non-empty string in raw.
func firstPath(raw string, paths []string) string {
	for _, path := range paths {
		if value := gjson.Get(raw, path); value.Type == gjson.String && value.Str != "" {
			return value.Str
		}
	}
	return ""
}

// normalizeChunk validates a streamed line as JSON, attempting one automatic
// repair pass for lines that arrive malformed (truncated frames, stray
// prefixes). Returns the usable JSON document and whether the line is
// decodable at all; undecodable lines are skipped by the caller rather than
// aborting the stream.
func normalizeChunk(line string) (string, bool) {
	if gjson.Valid(line) {
		return line, true
	}
	repaired, err := jsonrepair.JSONRepair(line)
	if err != nil || !gjson.Valid(repaired) {
		return "", false
	}
	return repaired, true
}

// decodeChunk extracts the text carried by one streamed line, if any, and
// reports whether the chunk signals end of stream.
//
// For the Anthropic dialect only "content_block_delta" events contribute
// text and "message_stop" terminates; every other event type (message_start,
// ping, content_block_start, ...) is ignored. For other dialects the
// profile's ordered stream paths are tried, and the optional done-flag path
// (Ollama's "done") is checked for termination.
func decodeChunk(profile *DialectProfile, line string) (text string, done bool) {
	chunk, ok := normalizeChunk(line)
	if !ok {
		return "", false
	}

	if profile.Dialect == DialectAnthropic {
		switch gjson.Get(chunk, "type").Str {
		case "content_block_delta":
			return firstPath(chunk, profile.StreamContentPaths), false
		case "message_stop":
			return "", true
		default:
			return "", false
		}
	}

	text = firstPath(chunk, profile.StreamContentPaths)
	if profile.DoneFlagPath != "" && gjson.Get(chunk, profile.DoneFlagPath).Bool() {
		done = true
	}
	return text, done
}

// extractResponseContent pulls the assistant text out of a whole (non-
// streamed) response body using the profile's ordered response paths. As a
// final attempt it handles the Anthropic content-block list shape, joining
// every "text" block in order, which also covers OpenAI-compatible proxies
// that forward Anthropic-shaped bodies.
func extractResponseContent(profile *DialectProfile, body []byte) string {
	raw, ok := normalizeChunk(string(body))
	if !ok {
		return ""
	}

	if text := firstPath(raw, profile.ResponseContentPaths); text != "" {
		return text
	}

	// Anthropic content-block list: {"content":[{"type":"text","text":...}, ...]}
	blocks := gjson.Get(raw, "content")
	if blocks.IsArray() {
		var joined string
		for _, block := range blocks.Array() {
			if block.Get("type").Str == "text" {
				joined += block.Get("text").Str
			}
		}
		if joined != "" {
			return joined
		}
	}

	return ""
}
