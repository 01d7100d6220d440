package intent

// Result is the resolved shape of one parse call. The model sometimes answers
// with a single action object and sometimes with an array; that duality is
// collapsed here, at the parsing boundary, so downstream code only ever deals
// with an ordered list.
type Result struct {
	intents []ParsedIntent
	source  string
}

// None returns an empty result for an utterance with nothing actionable.
func None(sourceText string) Result {
	return Result{source: sourceText}
}

// Single wraps exactly one intent.
func Single(p ParsedIntent) Result {
	return Result{intents: []ParsedIntent{p}, source: p.SourceText}
}

// Batch wraps an ordered list of intents, preserving mention order.
func Batch(sourceText string, intents []ParsedIntent) Result {
	return Result{intents: intents, source: sourceText}
}

// Empty reports whether nothing actionable was extracted.
func (r Result) Empty() bool {
	return len(r.intents) == 0
}

// Len returns the number of extracted intents.
func (r Result) Len() int {
	return len(r.intents)
}

// One returns the single intent when exactly one was extracted.
func (r Result) One() (ParsedIntent, bool) {
	if len(r.intents) == 1 {
		return r.intents[0], true
	}
	return ParsedIntent{}, false
}

// All returns the extracted intents in mention order. The slice is a copy.
func (r Result) All() []ParsedIntent {
	out := make([]ParsedIntent, len(r.intents))
	copy(out, r.intents)
	return out
}

// SourceText returns the originating utterance.
func (r Result) SourceText() string {
	return r.source
}
