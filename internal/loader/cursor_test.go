package loader

import (
	"fmt"
	"math"
	"testing"
)

func makeTokens(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("w%d", i)
	}
	return tokens
}

func sectionalStream(tokens []string, checkpoints []int, desired float64) *tokenStream {
	s := &tokenStream{sectional: true}
	s.install(tokens, checkpoints, desired)
	return s
}

func flatStream(tokens []string, desired float64) *tokenStream {
	s := &tokenStream{}
	s.install(tokens, nil, desired)
	return s
}

func TestTokenStream_InstallPositionsCursor(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		desired     float64
		wantWord    int
		wantAtStart bool
		wantAtEnd   bool
	}{
		{name: "start", count: 40, desired: 0, wantWord: 0, wantAtStart: true},
		{name: "midway", count: 40, desired: 0.5, wantWord: 20},
		{name: "end clamps to last token", count: 40, desired: 1, wantWord: 39, wantAtEnd: true},
		{name: "negative clamps to start", count: 10, desired: -0.3, wantWord: 0, wantAtStart: true},
		{name: "above one clamps to end", count: 10, desired: 1.7, wantWord: 9, wantAtEnd: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flatStream(makeTokens(tt.count), tt.desired)
			if s.word != tt.wantWord {
				t.Errorf("word = %d, want %d", s.word, tt.wantWord)
			}
			if got := s.IsAtStart(); got != tt.wantAtStart {
				t.Errorf("IsAtStart() = %v, want %v", got, tt.wantAtStart)
			}
			if got := s.IsAtEnd(); got != tt.wantAtEnd {
				t.Errorf("IsAtEnd() = %v, want %v", got, tt.wantAtEnd)
			}
		})
	}
}

func TestTokenStream_ResumeAtHalfLandsInSecondSection(t *testing.T) {
	// 40 tokens with sections at 0, 10 and 25: a 0.5 resume lands on word 20,
	// inside the section opened at 10.
	s := sectionalStream(makeTokens(40), []int{0, 10, 25}, 0.5)

	if s.word != 20 {
		t.Fatalf("word = %d, want 20", s.word)
	}
	if s.section != 1 {
		t.Fatalf("section = %d, want 1", s.section)
	}

	res := s.Perform(ActionPreviousStep, 10)
	if !res.Changed {
		t.Error("expected PreviousStep to move")
	}
	if s.word != 10 {
		t.Errorf("word = %d, want section start 10", s.word)
	}
}

func TestTokenStream_WordAccessors(t *testing.T) {
	s := flatStream([]string{"a", "b", "c"}, 0)

	if got := s.CurrentWord(); got != "a" {
		t.Errorf("CurrentWord() = %q, want a", got)
	}
	if got := s.PreviousWord(); got != "" {
		t.Errorf("PreviousWord() at start = %q, want empty", got)
	}
	if got := s.NextWord(); got != "b" {
		t.Errorf("NextWord() = %q, want b", got)
	}

	s.Perform(ActionNextWord, 0)
	s.Perform(ActionNextWord, 0)
	if got := s.NextWord(); got != "" {
		t.Errorf("NextWord() at end = %q, want empty", got)
	}
	if got := s.PreviousWord(); got != "b" {
		t.Errorf("PreviousWord() = %q, want b", got)
	}
}

func TestTokenStream_NextWordStopsAtEnd(t *testing.T) {
	s := flatStream(makeTokens(3), 1)

	res := s.Perform(ActionNextWord, 0)
	if res.Changed {
		t.Error("NextWord at the last token must not move")
	}
	if !s.IsAtEnd() {
		t.Error("expected cursor to stay at end")
	}
}

func TestTokenStream_RewindFromAnywhere(t *testing.T) {
	s := sectionalStream(makeTokens(40), []int{0, 10, 25}, 0.8)

	res := s.Perform(ActionRewind, 0)
	if !res.Changed || res.NeedsLoading {
		t.Errorf("rewind = %+v, want changed without loading", res)
	}
	if !s.IsAtStart() {
		t.Error("expected cursor at start after rewind")
	}
	if s.Completion() != 0 {
		t.Errorf("Completion() = %v, want 0", s.Completion())
	}

	res = s.Perform(ActionRewind, 0)
	if res.Changed {
		t.Error("rewind at start must report no change")
	}
}

func TestTokenStream_SectionSteps(t *testing.T) {
	// Sections at 0, 12 and 30 over 50 tokens.
	tests := []struct {
		name   string
		start  int
		action Action
		want   int
	}{
		{name: "mid-section back to section start", start: 15, action: ActionPreviousStep, want: 12},
		{name: "section start back to prior section", start: 12, action: ActionPreviousStep, want: 0},
		{name: "first section start stays", start: 0, action: ActionPreviousStep, want: 0},
		{name: "forward to next section", start: 15, action: ActionNextStep, want: 30},
		{name: "forward from section start", start: 12, action: ActionNextStep, want: 30},
		{name: "forward past last section lands on last token", start: 35, action: ActionNextStep, want: 49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sectionalStream(makeTokens(50), []int{0, 12, 30}, 0)
			s.word = tt.start
			s.section = s.sectionFor(tt.start)

			res := s.Perform(tt.action, 10)
			if s.word != tt.want {
				t.Errorf("word = %d, want %d", s.word, tt.want)
			}
			if wantChanged := tt.start != tt.want; res.Changed != wantChanged {
				t.Errorf("Changed = %v, want %v", res.Changed, wantChanged)
			}
		})
	}
}

func TestTokenStream_SectionStepBeforeFirstCheckpoint(t *testing.T) {
	// With no checkpoint at 0 the cursor can sit before the first section.
	s := sectionalStream(makeTokens(20), []int{5, 12}, 0)
	if s.section != -1 {
		t.Fatalf("section = %d, want -1 before the first checkpoint", s.section)
	}
	s.word = 3
	s.section = s.sectionFor(3)

	s.Perform(ActionPreviousStep, 10)
	if s.word != 0 {
		t.Errorf("word = %d, want 0", s.word)
	}

	s.Perform(ActionNextStep, 10)
	if s.word != 5 {
		t.Errorf("word = %d, want first checkpoint 5", s.word)
	}
}

func TestTokenStream_FlatSteps(t *testing.T) {
	s := flatStream(makeTokens(30), 0.5)
	if s.word != 15 {
		t.Fatalf("word = %d, want 15", s.word)
	}

	s.Perform(ActionPreviousStep, 10)
	if s.word != 5 {
		t.Errorf("word = %d, want 5", s.word)
	}
	s.Perform(ActionPreviousStep, 10)
	if s.word != 0 {
		t.Errorf("word = %d, want clamp to 0", s.word)
	}

	s.Perform(ActionNextStep, 10)
	if s.word != 10 {
		t.Errorf("word = %d, want 10", s.word)
	}
	s.Perform(ActionNextStep, 25)
	if s.word != 29 {
		t.Errorf("word = %d, want clamp to last token 29", s.word)
	}
}

func TestTokenStream_CompletionRoundTrip(t *testing.T) {
	const n = 32
	s := flatStream(makeTokens(n), 0)

	for i := 0; i < n-1; i++ {
		s.Perform(ActionNextWord, 0)
	}
	if !s.IsAtEnd() {
		t.Fatal("expected cursor at end after n-1 advances")
	}
	want := float64(n-1) / float64(n)
	if got := s.Completion(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Completion() = %v, want %v", got, want)
	}

	// Reinstalling at the reported completion restores the same cursor.
	resumed := flatStream(makeTokens(n), s.Completion())
	if resumed.word != s.word {
		t.Errorf("resumed word = %d, want %d", resumed.word, s.word)
	}
}

func TestTokenStream_InvalidBeforeLoad(t *testing.T) {
	s := &tokenStream{desired: 0.4}

	if !s.IsInvalid() {
		t.Error("expected unloaded stream to be invalid")
	}
	if got := s.Completion(); got != 0.4 {
		t.Errorf("Completion() before load = %v, want the desired value 0.4", got)
	}
	if got := s.CurrentWord(); got != "" {
		t.Errorf("CurrentWord() = %q, want empty", got)
	}
	if res := s.Perform(ActionNextWord, 0); res.Changed || res.NeedsLoading {
		t.Errorf("Perform on invalid stream = %+v, want no-op", res)
	}
}
