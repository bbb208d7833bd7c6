package game

import (
	"strings"

	"github.com/fablekit/fable/chat"
)

// Transcript projections. All three are pure, stateless functions of the
// (speaker, text) sequence: calling them twice on the same entries yields
// identical output.

// TranscriptMessages renders transcript entries as a chat-UI message list,
// mapping the GM to the assistant role and the player to the user role.
func TranscriptMessages(entries []Entry) []chat.Message {
	messages := make([]chat.Message, 0, len(entries))
	for _, entry := range entries {
		role := chat.RoleUser
		if entry.Speaker == SpeakerGM {
			role = chat.RoleAssistant
		}
		messages = append(messages, chat.Message{Role: role, Content: entry.Text})
	}
	return messages
}

// TranscriptMarkdown renders the transcript as a Markdown adventure log.
func TranscriptMarkdown(entries []Entry) string {
	var builder strings.Builder
	builder.WriteString("# Adventure Log\n\n")
	for _, entry := range entries {
		prefix := "**Player:**"
		if entry.Speaker == SpeakerGM {
			prefix = "**Game Master:**"
		}
		builder.WriteString(prefix)
		builder.WriteString("\n")
		builder.WriteString(entry.Text)
		builder.WriteString("\n\n")
	}
	return builder.String()
}

// TranscriptPlainText renders the transcript as plain text.
func TranscriptPlainText(entries []Entry) string {
	var builder strings.Builder
	builder.WriteString("Adventure Log\n")
	builder.WriteString(strings.Repeat("=", 50))
	builder.WriteString("\n\n")
	for _, entry := range entries {
		builder.WriteString(string(entry.Speaker))
		builder.WriteString(": ")
		builder.WriteString(entry.Text)
		builder.WriteString("\n\n")
	}
	return builder.String()
}
