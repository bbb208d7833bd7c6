package chat

import "strings"

// DetectDialect resolves which wire dialect to speak for the given
// configuration. The signals are tried strongest-first:
//
//  1. URL substring match, in the fixed profile priority order. The URL
//     cannot be wrong without misconfiguration, so it always wins.
//  2. Explicit provider hint (unless empty or "auto"), matched against
//     dialect names and aliases — developer intent.
//  3. Model-name substring match — a last-resort heuristic, since model
//     names are reused across ecosystems.
//  4. DialectOpenAI, the most widely replicated shape.
//
// The function is pure; [Client] memoizes the result per instance.
func DetectDialect(url, hint, model string) Dialect {
	loweredURL := strings.ToLower(url)
	for _, dialect := range detectionOrder {
		for _, fragment := range profiles[dialect].URLSubstrings {
			if fragment != "" && strings.Contains(loweredURL, fragment) {
				return dialect
			}
		}
	}

	loweredHint := strings.ToLower(strings.TrimSpace(hint))
	if loweredHint != "" && loweredHint != "auto" {
		for _, dialect := range detectionOrder {
			if loweredHint == string(dialect) {
				return dialect
			}
			for _, alias := range profiles[dialect].Aliases {
				if loweredHint == alias {
					return dialect
				}
			}
		}
	}

	loweredModel := strings.ToLower(model)
	if loweredModel != "" {
		for _, dialect := range detectionOrder {
			for _, fragment := range profiles[dialect].ModelSubstrings {
				if fragment != "" && strings.Contains(loweredModel, fragment) {
					return dialect
				}
			}
		}
	}

	return DialectOpenAI
}
