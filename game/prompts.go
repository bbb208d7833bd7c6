package game

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultGMPrompt is the built-in Game Master system prompt used when no
// prompt file is configured or readable.
const DefaultGMPrompt = `You are an engaging fantasy RPG Game Master. Your role is to:

1. Create vivid, immersive fantasy adventures in 3-4 concise lines, balancing atmosphere with clarity
2. Always provide exactly 4 numbered options after each scenario (unless it's the final step)
3. Respond to player choices with consequences and new situations
4. Keep the story dynamic and interesting
5. Maintain consistency in the world and characters

Guidelines:
- Set scenes with rich descriptions
- Create meaningful choices that matter
- Balance challenge and success
- Keep responses concise but engaging
- Always end with 4 numbered options (1. 2. 3. 4.) UNLESS it's explicitly stated to be the final step

CRITICAL FINAL STEP RULE:
- When told this is the final step or maximum steps have been reached:
  * DO NOT provide numbered options
  * Instead, conclude the adventure with a complete and satisfying ending
  * Resolve all major plot threads and character arcs
  * Provide closure for the player's journey
  * Make the ending feel earned and meaningful
  * The ending should be 2-3 paragraphs that bring the story to a natural conclusion

Begin each adventure by setting an intriguing scene and providing 4 options.`

// DefaultPlayerPrompt is the built-in player system prompt.
const DefaultPlayerPrompt = `You are a player in an RPG adventure. You will:

1. Choose from the numbered options provided by the GM
2. Make decisions based on your character's personality
3. Be creative and engaged in the story
4. Respond with just the number of your choice

You are playing as a brave adventurer seeking fortune and glory.`

// PromptSource supplies the GM and player system prompts. The state machine
// consumes it as an interface so prompt storage stays outside the core.
type PromptSource interface {
	// Prompts returns the (gmPrompt, playerPrompt) pair.
	Prompts() (string, string)
}

// StaticPrompts is a PromptSource holding fixed strings.
type StaticPrompts struct {
	GM     string
	Player string
}

// Prompts implements [PromptSource].
func (prompts StaticPrompts) Prompts() (string, string) {
	return prompts.GM, prompts.Player
}

// FilePrompts loads prompts from text files, falling back to the built-in
// defaults when a file is missing, unreadable, or empty.
type FilePrompts struct {
	Dir        string
	GMFile     string
	PlayerFile string
}

// Prompts implements [PromptSource].
func (prompts FilePrompts) Prompts() (string, string) {
	return prompts.LoadGM(), prompts.LoadPlayer()
}

// LoadGM returns the GM prompt from file, or [DefaultGMPrompt].
func (prompts FilePrompts) LoadGM() string {
	return prompts.loadOrDefault(prompts.GMFile, DefaultGMPrompt)
}

// LoadPlayer returns the player prompt from file, or [DefaultPlayerPrompt].
func (prompts FilePrompts) LoadPlayer() string {
	return prompts.loadOrDefault(prompts.PlayerFile, DefaultPlayerPrompt)
}

func (prompts FilePrompts) loadOrDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	path := filepath.Join(prompts.Dir, name)
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not load prompt file, using default", "path", path, "error", err.Error())
		}
		return fallback
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// Save writes a prompt to the named file under the prompts directory,
// creating the directory when missing.
func (prompts FilePrompts) Save(name, content string) error {
	if err := os.MkdirAll(prompts.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	path := filepath.Join(prompts.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}
	return nil
}

// CreateDefaults writes the built-in prompts to their configured files when
// those files do not exist yet, so users have a template to edit.
func (prompts FilePrompts) CreateDefaults() error {
	defaults := map[string]string{
		prompts.GMFile:     DefaultGMPrompt,
		prompts.PlayerFile: DefaultPlayerPrompt,
	}
	for name, content := range defaults {
		if name == "" {
			continue
		}
		path := filepath.Join(prompts.Dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := prompts.Save(name, content); err != nil {
			return err
		}
	}
	return nil
}
