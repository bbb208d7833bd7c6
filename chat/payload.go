package chat

import "strings"

const (
	// finalTurnMaxTokens bounds the concluding turn's token budget so the
	// ending narration is complete rather than open-ended. Overridable via
	// Config.FinalMaxTokens.
	finalTurnMaxTokens = 320
	// finalTurnTemperature is the moderate sampling temperature applied on
	// the concluding turn, regardless of dialect.
	finalTurnTemperature = 0.7
)

// buildPayload shapes the outbound JSON body for one dialect. Messages are
// provider-agnostic on the way in; the profile decides system-prompt
// placement, parameter nesting, and whether an explicit max_tokens cap must
// be injected. When turn.Final is set the generation parameters are
// overridden with the bounded final-turn budget for every dialect.
func buildPayload(profile *DialectProfile, model string, messages []Message, generation GenerationConfig, stream bool, turn TurnOptions, finalMaxTokens int) map[string]any {
	if turn.Final {
		capTokens := finalMaxTokens
		if capTokens <= 0 {
			capTokens = finalTurnMaxTokens
		}
		generation = GenerationConfig{
			Temperature: finalTurnTemperature,
			TopP:        generation.TopP,
			MaxTokens:   capTokens,
		}
	}

	if profile.SystemTopLevel {
		return buildSystemTopLevelPayload(profile, model, messages, generation, stream)
	}
	return buildMessagesPayload(profile, model, messages, generation, stream)
}

// buildMessagesPayload covers the OpenAI-compatible dialects (including
// Ollama): the messages array is sent as-is with model and stream flags, and
// sampling parameters either top-level or nested under "options".
func buildMessagesPayload(profile *DialectProfile, model string, messages []Message, generation GenerationConfig, stream bool) map[string]any {
	payload := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   stream,
	}

	maxTokens := generation.MaxTokens
	if maxTokens == 0 && profile.RequireMaxTokens {
		maxTokens = defaultMaxTokens
	}

	params := map[string]any{}
	if generation.Temperature > 0 {
		params["temperature"] = generation.Temperature
	}
	if generation.TopP > 0 {
		params["top_p"] = generation.TopP
	}
	if maxTokens > 0 {
		if profile.ParamsInOptions {
			params["num_predict"] = maxTokens
		} else {
			params["max_tokens"] = maxTokens
		}
	}

	if profile.ParamsInOptions {
		if len(params) > 0 {
			payload["options"] = params
		}
	} else {
		for key, value := range params {
			payload[key] = value
		}
	}

	return payload
}

// buildSystemTopLevelPayload covers the Anthropic dialect: system messages
// are extracted from the sequence and concatenated (blank-line separated,
// original order) into the top-level "system" field, and max_tokens is
// mandatory on every request.
func buildSystemTopLevelPayload(profile *DialectProfile, model string, messages []Message, generation GenerationConfig, stream bool) map[string]any {
	var systemParts []string
	wireMessages := make([]Message, 0, len(messages))
	for _, message := range messages {
		if message.Role == RoleSystem {
			systemParts = append(systemParts, message.Content)
			continue
		}
		wireMessages = append(wireMessages, message)
	}

	maxTokens := generation.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	payload := map[string]any{
		"model":      model,
		"messages":   wireMessages,
		"stream":     stream,
		"max_tokens": maxTokens,
	}
	if len(systemParts) > 0 {
		payload["system"] = strings.Join(systemParts, "\n\n")
	}
	if generation.Temperature > 0 {
		payload["temperature"] = generation.Temperature
	}
	if generation.TopP > 0 {
		payload["top_p"] = generation.TopP
	}

	return payload
}
