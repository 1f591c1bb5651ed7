package quote

// DefaultSpeechLabel is the label suffix applied to detected spans when no
// other label is configured.
const DefaultSpeechLabel = "DIRECT"

// Config holds the immutable engine configuration. It must not change for
// the duration of a run; copies are cheap and safe to share across
// concurrent document passes.
type Config struct {
	// SpeechLabel is the suffix of emitted labels ("B-<SpeechLabel>",
	// "I-<SpeechLabel>").
	SpeechLabel string

	// HandleMultiParagraph controls what happens to quotes still open at
	// document end: true finalizes them into document-spanning spans,
	// false discards them as ordinary punctuation.
	HandleMultiParagraph bool

	// HandleNested is retained for configuration compatibility. Nesting
	// detection falls out of stack depth and cannot be disabled without
	// suppressing nested span emission entirely.
	HandleNested bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		SpeechLabel:          DefaultSpeechLabel,
		HandleMultiParagraph: true,
		HandleNested:         true,
	}
}
