// Package game implements a turn-based narrative state machine on top of the
// provider-adaptive chat client. An [Adventure] holds the protocol message
// history sent to the model and a parallel (speaker, text) transcript,
// advances the story one player choice at a time, and decides when the
// adventure must conclude.
//
// Both [Adventure.Start] and [Adventure.TakeStep] return pull-based sequences
// of [StepUpdate] values so a presentation layer can render fragments as they
// arrive. Failures surface through the update's OK flag and diagnostic text;
// neither operation panics, and committed history is never left half-mutated
// when a caller abandons iteration early.
//
// The concluding turn gets special treatment: an ending-specific prompt, a
// bounded token budget on the wire, and post-processing that strips stray
// numbered options and substitutes a hand-written conclusion when the
// model's ending fails the plausibility heuristic in [AcceptableEnding].
package game
