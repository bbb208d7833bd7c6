package game

import (
	"fmt"
	"regexp"
	"strings"
)

// optionLinePattern matches numbered-option lines such as "1. Go north",
// "2) Hide", or "3: Run" anywhere in a response.
var optionLinePattern = regexp.MustCompile(`\n?\d+[.):][^\n]*`)

// danglingStarters are sentence openers that indicate a truncated or
// mid-thought ending when they begin the whole conclusion.
var danglingStarters = []string{"you", "as", "the", "and", "but", "or", "while", "when", "if"}

// minEndingWords is the plausibility floor for a conclusion; anything
// shorter almost certainly got truncated on the wire.
const minEndingWords = 20

// StripOptionLines removes numbered-option lines that slipped into a
// response despite instructions, along with surrounding whitespace.
func StripOptionLines(text string) string {
	return strings.TrimSpace(optionLinePattern.ReplaceAllString(text, ""))
}

// EndingValidator reports whether a candidate conclusion is acceptable.
// It is a heuristic, not a guarantee: it catches the common failure shapes
// (truncation, dangling fragments) and nothing more.
type EndingValidator func(text string) bool

// AcceptableEnding is the default [EndingValidator]. A conclusion is
// rejected when it is empty, shorter than 20 words, or opens with a
// dangling-fragment starter word.
func AcceptableEnding(text string) bool {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return false
	}
	if len(strings.Fields(cleaned)) < minEndingWords {
		return false
	}
	lowered := strings.ToLower(cleaned)
	for _, starter := range danglingStarters {
		if strings.HasPrefix(lowered, starter+" ") {
			return false
		}
	}
	return true
}

// EnsureTerminalPunctuation appends a period when text does not already end
// with terminal punctuation.
func EnsureTerminalPunctuation(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return trimmed
	}
	return trimmed + "."
}

// countNumberedOptions reports how many of the markers "1." through "4."
// (or the ")" variant) appear in a response.
func countNumberedOptions(text string) int {
	count := 0
	for i := 1; i <= 4; i++ {
		if strings.Contains(text, fmt.Sprintf("%d.", i)) || strings.Contains(text, fmt.Sprintf("%d)", i)) {
			count++
		}
	}
	return count
}

// defaultOptionsBlock is appended to a mid-adventure response that arrived
// without a full set of choices, so the player always has somewhere to go.
const defaultOptionsBlock = "\n\nYour options now:\n" +
	"1. Continue exploring\n" +
	"2. Think carefully\n" +
	"3. Look around\n" +
	"4. Make a decision"

// EnsureOptions appends the default options block when a non-final response
// does not already contain four numbered options.
func EnsureOptions(text string) string {
	if countNumberedOptions(text) >= 4 {
		return text
	}
	return text + defaultOptionsBlock
}

// fallbackConclusions are the hand-written endings substituted when the
// model's conclusion fails [AcceptableEnding]. Each independently satisfies
// the closure requirement: twenty-plus words, no numbered options, no
// dangling opener, terminal punctuation.
func fallbackConclusions(choice int) []string {
	return []string{
		fmt.Sprintf("With choice %d made, the adventure takes its final turn. Every skill learned along the "+
			"journey comes together in one decisive moment, allies rally for the last push, and the threat is "+
			"finally overcome. Peace returns to the land, the hero is celebrated by all who were saved, and the "+
			"quest ends in triumph with the promise of new tales to come.", choice),
		fmt.Sprintf("Option %d leads straight into the climactic finale. Mysteries gathered along the road at "+
			"last make sense as the pieces fall into place, and victory comes, though not without sacrifice. "+
			"Forever changed by the choices made along the way, the world settles into a hard-won calm, and the "+
			"tale concludes knowing its echo will carry through the ages.", choice),
		fmt.Sprintf("Choice %d brings everything to its destined close. Companions met along the way each play "+
			"their part in the grand finale, cleverness wins where force alone could not, and the kingdom "+
			"celebrates as peace is restored. Wiser for the journey, the hero turns home at last, leaving behind "+
			"a legacy of hope and courage, and the adventure is complete.", choice),
	}
}
