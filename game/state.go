package game

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/fablekit/fable/chat"
)

// Phase is the lifecycle state of an adventure.
type Phase int

const (
	// PhaseNotStarted means Start has not run yet (or Reset just did).
	PhaseNotStarted Phase = iota
	// PhaseInProgress means the opening scene is set and steps are accepted.
	PhaseInProgress
	// PhaseConcluded means the step counter reached the configured maximum;
	// only Reset leaves this state.
	PhaseConcluded
)

// String implements fmt.Stringer for log and metadata output.
func (phase Phase) String() string {
	switch phase {
	case PhaseInProgress:
		return "in_progress"
	case PhaseConcluded:
		return "concluded"
	default:
		return "not_started"
	}
}

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerGM     Speaker = "GM"
	SpeakerPlayer Speaker = "Player"
)

// Entry is one (speaker, text) record in the narrative transcript. The
// transcript mirrors the protocol message history but is keyed by narrative
// speaker rather than protocol role.
type Entry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// StepUpdate is one value yielded during Start or TakeStep. Transcript is a
// snapshot of the conversation so far, including the in-flight GM text, so
// a presentation layer can re-render the whole view on every pull. Fragment
// is the cumulative GM text so far (the chat client's fragment convention).
// When OK is false, Fragment carries a diagnostic message and the committed
// transcript is returned unmodified.
type StepUpdate struct {
	OK         bool
	Transcript []Entry
	Choice     int
	Fragment   string
}

// Narrator is the slice of the chat client the state machine depends on.
// *chat.Client satisfies it; tests substitute fakes.
type Narrator interface {
	ChatStreaming(ctx context.Context, messages []chat.Message, turn chat.TurnOptions) iter.Seq[string]
	Info() chat.Info
}

const startInstruction = "Begin the adventure. Set the scene and give me 4 options to choose from."

// fallbackOpening guarantees a non-empty opening narration.
const fallbackOpening = "A new adventure begins, though the narrator gave no details of the scene ahead."

const (
	errAlreadyStarted   = "the adventure has already started"
	errAlreadyConcluded = "the adventure has concluded; reset to begin anew"
	errNotStarted       = "the adventure has not started yet"
	errChoiceRequired   = "a player choice between 1 and 4 is required"
)

// Adventure models one narrative session: the message history sent to the
// provider, the (speaker, text) transcript, a monotonically increasing step
// counter, and the lifecycle phase. It is not safe for concurrent use; one
// adventure processes one in-flight model request at a time.
type Adventure struct {
	narrator   Narrator
	history    []chat.Message
	transcript []Entry
	phase      Phase
	stepCount  int

	autoChoice bool
	validator  EndingValidator
	sink       *TranscriptSink

	// randInt draws from [0,n); swapped for determinism in tests.
	randInt func(n int) int
}

// New creates an adventure primed with the given GM system prompt. The
// returned adventure auto-selects a random choice when none is supplied and
// validates endings with [AcceptableEnding]; both are adjustable via the
// With methods.
func New(gmPrompt string, narrator Narrator) *Adventure {
	return &Adventure{
		narrator:   narrator,
		history:    []chat.Message{{Role: chat.RoleSystem, Content: gmPrompt}},
		autoChoice: true,
		validator:  AcceptableEnding,
		randInt:    rand.IntN,
	}
}

// WithSink attaches an append-only transcript sink and returns the adventure
// so calls can be chained. A nil sink disables transcript persistence.
func (adventure *Adventure) WithSink(sink *TranscriptSink) *Adventure {
	adventure.sink = sink
	return adventure
}

// WithAutoChoice controls whether TakeStep draws a uniform random choice when
// the caller supplies none. Disabling it turns a missing choice into a
// failure update instead.
func (adventure *Adventure) WithAutoChoice(enabled bool) *Adventure {
	adventure.autoChoice = enabled
	return adventure
}

// WithEndingValidator replaces the conclusion plausibility predicate.
func (adventure *Adventure) WithEndingValidator(validator EndingValidator) *Adventure {
	adventure.validator = validator
	return adventure
}

// Phase returns the adventure's current lifecycle state.
func (adventure *Adventure) Phase() Phase {
	return adventure.phase
}

// StepCount returns the number of committed player steps.
func (adventure *Adventure) StepCount() int {
	return adventure.stepCount
}

// Transcript returns a copy of the committed transcript.
func (adventure *Adventure) Transcript() []Entry {
	return slices.Clone(adventure.transcript)
}

// failure builds the update yielded when an operation cannot proceed. The
// committed transcript is passed through untouched.
func (adventure *Adventure) failure(message string) StepUpdate {
	return StepUpdate{
		OK:         false,
		Transcript: slices.Clone(adventure.transcript),
		Fragment:   message,
	}
}

// snapshotWith returns the committed transcript plus one in-flight GM entry.
func (adventure *Adventure) snapshotWith(gmText string) []Entry {
	snapshot := slices.Clone(adventure.transcript)
	return append(snapshot, Entry{Speaker: SpeakerGM, Text: gmText})
}

// commitGM appends a completed GM turn to the protocol history, the
// transcript, and the sink.
func (adventure *Adventure) commitGM(text string) {
	adventure.history = append(adventure.history, chat.Message{Role: chat.RoleAssistant, Content: text})
	adventure.transcript = append(adventure.transcript, Entry{Speaker: SpeakerGM, Text: text})
	adventure.sink.Append(SpeakerGM, text)
}

// Start opens the adventure: it asks the model to set the scene with exactly
// four options and streams the opening narration. Valid only from
// PhaseNotStarted; on success the adventure transitions to PhaseInProgress.
// Nothing is committed if the caller abandons iteration before the stream is
// exhausted.
func (adventure *Adventure) Start(ctx context.Context) iter.Seq[StepUpdate] {
	return func(yield func(StepUpdate) bool) {
		switch adventure.phase {
		case PhaseInProgress:
			yield(adventure.failure(errAlreadyStarted))
			return
		case PhaseConcluded:
			yield(adventure.failure(errAlreadyConcluded))
			return
		}

		pending := append(slices.Clone(adventure.history), chat.Message{Role: chat.RoleUser, Content: startInstruction})

		accumulated := ""
		for fragment := range adventure.narrator.ChatStreaming(ctx, pending, chat.TurnOptions{}) {
			accumulated = fragment
			if !yield(StepUpdate{OK: true, Transcript: adventure.snapshotWith(accumulated), Fragment: accumulated}) {
				return
			}
		}

		if strings.TrimSpace(accumulated) == "" {
			accumulated = fallbackOpening
		}
		accumulated = EnsureOptions(accumulated)

		adventure.history = append(pending, chat.Message{Role: chat.RoleAssistant, Content: accumulated})
		adventure.transcript = append(adventure.transcript, Entry{Speaker: SpeakerGM, Text: accumulated})
		adventure.sink.Append(SpeakerGM, accumulated)
		adventure.phase = PhaseInProgress

		slog.Info("adventure started", "transcript_entries", len(adventure.transcript))
		yield(StepUpdate{OK: true, Transcript: slices.Clone(adventure.transcript), Fragment: accumulated})
	}
}

// TakeStep advances the story by one player choice. choice must be 1 through
// 4; zero draws a uniform random choice when auto-selection is enabled (the
// auto-play affordance). maxSteps is the session's configured maximum: the
// step that reaches it is the final turn, which switches the prompt, the
// wire-level token budget, and the response validation to ending mode.
//
// The player's choice is committed to the transcript before the model call
// so the UI can show it while the model responds. The GM text is committed
// only after the stream is fully consumed.
func (adventure *Adventure) TakeStep(ctx context.Context, choice int, maxSteps int) iter.Seq[StepUpdate] {
	return func(yield func(StepUpdate) bool) {
		switch adventure.phase {
		case PhaseNotStarted:
			yield(adventure.failure(errNotStarted))
			return
		case PhaseConcluded:
			yield(adventure.failure(errAlreadyConcluded))
			return
		}

		if choice == 0 && adventure.autoChoice {
			choice = 1 + adventure.randInt(4)
		}
		if choice < 1 || choice > 4 {
			yield(adventure.failure(errChoiceRequired))
			return
		}
		if maxSteps < 1 {
			maxSteps = 1
		}

		// Record the player's choice immediately, before the model call.
		adventure.transcript = append(adventure.transcript, Entry{Speaker: SpeakerPlayer, Text: strconv.Itoa(choice)})
		adventure.sink.Append(SpeakerPlayer, strconv.Itoa(choice))
		if !yield(StepUpdate{OK: true, Transcript: slices.Clone(adventure.transcript), Choice: choice, Fragment: ""}) {
			return
		}

		adventure.stepCount++
		isFinal := adventure.stepCount >= maxSteps
		slog.Info("taking adventure step",
			"step", adventure.stepCount,
			"max_steps", maxSteps,
			"choice", choice,
			"final", isFinal,
		)

		prompt := continuationPrompt(choice)
		if isFinal {
			prompt = endingPrompt(choice, adventure.stepCount, maxSteps)
		}
		pending := append(slices.Clone(adventure.history), chat.Message{Role: chat.RoleUser, Content: prompt})

		accumulated := ""
		for fragment := range adventure.narrator.ChatStreaming(ctx, pending, chat.TurnOptions{Final: isFinal}) {
			accumulated = fragment
			if !yield(StepUpdate{OK: true, Transcript: adventure.snapshotWith(accumulated), Choice: choice, Fragment: accumulated}) {
				return
			}
		}

		if isFinal {
			accumulated = adventure.concludeResponse(accumulated, choice)
			adventure.phase = PhaseConcluded
		} else {
			if strings.TrimSpace(accumulated) == "" {
				accumulated = fallbackOpening
			}
			accumulated = EnsureOptions(accumulated)
		}

		adventure.history = append(pending, chat.Message{Role: chat.RoleAssistant, Content: accumulated})
		adventure.commitGM(accumulated)

		yield(StepUpdate{OK: true, Transcript: slices.Clone(adventure.transcript), Choice: choice, Fragment: accumulated})
	}
}

// concludeResponse post-processes the final turn's text: numbered-option
// lines are stripped, the plausibility heuristic is applied, an implausible
// ending is replaced by a hand-written conclusion chosen at random, and the
// result always carries terminal punctuation.
func (adventure *Adventure) concludeResponse(text string, choice int) string {
	cleaned := StripOptionLines(text)

	if !adventure.validator(cleaned) {
		slog.Warn("final response failed plausibility check, substituting fallback conclusion",
			"words", len(strings.Fields(cleaned)),
		)
		endings := fallbackConclusions(choice)
		cleaned = endings[adventure.randInt(len(endings))]
	}

	return EnsureTerminalPunctuation(cleaned)
}

// Reset discards the transcript and step counter, truncates the protocol
// history back to the system prompt, rotates the sink to a fresh session
// file, and returns the adventure to PhaseNotStarted.
func (adventure *Adventure) Reset() {
	adventure.transcript = nil
	adventure.stepCount = 0
	adventure.history = adventure.history[:1]
	adventure.phase = PhaseNotStarted
	if err := adventure.sink.StartSession(); err != nil {
		slog.Warn("failed to rotate transcript session", "error", err.Error())
	}
}

// SessionInfo is the metadata snapshot returned by [Adventure.Info].
type SessionInfo struct {
	Phase             string    `json:"phase"`
	StepCount         int       `json:"step_count"`
	TranscriptEntries int       `json:"transcript_entries"`
	HistoryMessages   int       `json:"history_messages"`
	LastEntry         *Entry    `json:"last_entry,omitempty"`
	Client            chat.Info `json:"client"`
}

// Info returns session metadata for display and diagnostics.
func (adventure *Adventure) Info() SessionInfo {
	info := SessionInfo{
		Phase:             adventure.phase.String(),
		StepCount:         adventure.stepCount,
		TranscriptEntries: len(adventure.transcript),
		HistoryMessages:   len(adventure.history),
		Client:            adventure.narrator.Info(),
	}
	if len(adventure.transcript) > 0 {
		last := adventure.transcript[len(adventure.transcript)-1]
		info.LastEntry = &last
	}
	return info
}

// continuationPrompt asks for narrated consequences plus four new options.
func continuationPrompt(choice int) string {
	return fmt.Sprintf("I choose option %d. Describe the result and give me 4 new numbered options to continue the adventure.", choice)
}

// endingPrompt demands full narrative closure, forbids numbered options, and
// bounds the length of the conclusion.
func endingPrompt(choice, step, maxSteps int) string {
	return fmt.Sprintf(`I choose option %d.

This is the final step of our adventure (step %d of %d). Resolve the story
completely based on that choice and provide a satisfying conclusion with full
closure, wrapping up every thread and character arc. Do not include any
numbered options and do not leave the story open-ended. Write a complete,
well-formed narrative ending of at most 3 short paragraphs, beginning with
proper narrative rather than a dangling sentence fragment, and end with a
definitive statement that the adventure is complete.`, choice, step, maxSteps)
}
