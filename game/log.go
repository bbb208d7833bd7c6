package game

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// TranscriptSink appends committed turns to a per-session log file. It is
// best-effort by design: write failures are logged and gameplay continues,
// so durability of the file is never a correctness requirement of the state
// machine. A nil sink is valid and silently discards everything.
type TranscriptSink struct {
	dir         string
	sessionFile string
}

// NewTranscriptSink creates a sink writing under dir, creating the directory
// when missing.
func NewTranscriptSink(dir string) (*TranscriptSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript log directory: %w", err)
	}
	return &TranscriptSink{dir: dir}, nil
}

// StartSession rotates to a fresh append-only file named by the session
// start time and writes the session header.
func (sink *TranscriptSink) StartSession() error {
	if sink == nil {
		return nil
	}
	timestamp := time.Now().Format("20060102_150405")
	sink.sessionFile = filepath.Join(sink.dir, fmt.Sprintf("chat_session_%s.txt", timestamp))

	file, err := os.OpenFile(sink.sessionFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript session file: %w", err)
	}
	defer closeQuietly(file)

	if _, err := fmt.Fprintf(file, "=== New Chat Session: %s ===\n\n", timestamp); err != nil {
		return fmt.Errorf("failed to write session header: %w", err)
	}
	return nil
}

// Append records one committed turn. Failures are logged, never returned:
// the transcript file is best-effort.
func (sink *TranscriptSink) Append(speaker Speaker, text string) {
	if sink == nil {
		return
	}
	if sink.sessionFile == "" {
		if err := sink.StartSession(); err != nil {
			slog.Warn("failed to start transcript session", "error", err.Error())
			return
		}
	}

	file, err := os.OpenFile(sink.sessionFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("failed to open transcript file", "error", err.Error())
		return
	}
	defer closeQuietly(file)

	if _, err := fmt.Fprintf(file, "[%s] %s\n", speaker, text); err != nil {
		slog.Warn("failed to append transcript entry", "error", err.Error())
	}
}

// Path returns the current session file path, empty before the first session.
func (sink *TranscriptSink) Path() string {
	if sink == nil {
		return ""
	}
	return sink.sessionFile
}

func closeQuietly(file *os.File) {
	if err := file.Close(); err != nil {
		slog.Warn("failed to close transcript file", "error", err.Error())
	}
}
