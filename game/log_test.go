package game

import (
	"os"
	"strings"
	"testing"
)

// TestTranscriptSink_AppendsEntries verifies the session file carries the
// header and one line per committed turn.
func TestTranscriptSink_AppendsEntries(t *testing.T) {
	sink, err := NewTranscriptSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewTranscriptSink failed: %v", err)
	}

	sink.Append(SpeakerGM, "A cave mouth yawns ahead.")
	sink.Append(SpeakerPlayer, "2")

	content, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("reading session file: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "=== New Chat Session:") {
		t.Errorf("expected session header, got %q", text)
	}
	if !strings.Contains(text, "[GM] A cave mouth yawns ahead.\n") || !strings.Contains(text, "[Player] 2\n") {
		t.Errorf("expected appended entries, got %q", text)
	}
}

// TestTranscriptSink_StartSession_Rotates verifies each session gets its own
// file path.
func TestTranscriptSink_StartSession_SetsPath(t *testing.T) {
	sink, err := NewTranscriptSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if sink.Path() != "" {
		t.Errorf("expected empty path before the first session, got %q", sink.Path())
	}
	if err := sink.StartSession(); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if !strings.Contains(sink.Path(), "chat_session_") {
		t.Errorf("expected session-stamped filename, got %q", sink.Path())
	}
}

// TestTranscriptSink_NilSafe verifies every method tolerates a nil receiver,
// since persistence is optional.
func TestTranscriptSink_NilSafe(t *testing.T) {
	var sink *TranscriptSink
	sink.Append(SpeakerGM, "discarded")
	if err := sink.StartSession(); err != nil {
		t.Errorf("nil sink StartSession must be a no-op, got %v", err)
	}
	if sink.Path() != "" {
		t.Errorf("nil sink path must be empty, got %q", sink.Path())
	}
}
