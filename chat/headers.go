package chat

import (
	"os"

	"github.com/fablekit/fable/internal/utils"
)

// resolveAPIKey resolves the credential for a dialect: the explicitly
// configured key wins, then the dialect's own environment variable, then the
// generic fallback variable. Returns empty when nothing resolves, which for
// unauthenticated dialects (Ollama) is the normal case.
func resolveAPIKey(profile *DialectProfile, configured string) string {
	if configured != "" {
		return configured
	}
	if profile.KeyEnvVar != "" {
		if key := os.Getenv(profile.KeyEnvVar); key != "" {
			return key
		}
	}
	return os.Getenv(genericKeyEnvVar)
}

// buildHeaders constructs the per-request headers for a dialect. Content
// negotiation headers are applied by the HTTP helpers; this adds the
// authentication header only when the dialect defines one and a non-empty
// key resolves, plus any fixed headers the dialect requires (Anthropic's
// version pin).
func buildHeaders(profile *DialectProfile, configuredKey string) []utils.HeaderOption {
	var headers []utils.HeaderOption

	if profile.AuthHeader != "" {
		if key := resolveAPIKey(profile, configuredKey); key != "" {
			headers = append(headers, utils.HeaderOption{
				Key:   profile.AuthHeader,
				Value: profile.AuthScheme + key,
			})
		}
	}

	for key, value := range profile.ExtraHeaders {
		headers = append(headers, utils.HeaderOption{Key: key, Value: value})
	}

	return headers
}
