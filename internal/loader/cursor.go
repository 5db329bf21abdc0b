package loader

import (
	"math"
	"sync"
)

// tokenStream is the shared state for loaders that materialize the whole
// document in a single fetch: a flat token slice, optional section
// checkpoints, and a word cursor. It implements every Loader method except
// Load and Close.
//
// The section pointer is -1 while the cursor sits before the first
// checkpoint (no synthetic leading checkpoint is forced); when valid it
// always names the largest checkpoint at or before the cursor.
type tokenStream struct {
	mu sync.Mutex

	tokens      []string
	checkpoints []int

	word    int
	section int

	// sectional selects the step semantics: section jumps for markup
	// loaders, fixed word counts otherwise.
	sectional bool

	// desired is the caller-supplied resume completion, reported until the
	// first load lands.
	desired float64

	loaded bool
}

// install publishes the extraction result and positions the cursor at the
// desired completion. Called once, from the loading goroutine.
func (s *tokenStream) install(tokens []string, checkpoints []int, desired float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = tokens
	s.checkpoints = checkpoints
	s.desired = desired

	d := math.Min(math.Max(desired, 0), 1)
	s.word = int(d * float64(len(tokens)))
	if s.word >= len(tokens) {
		s.word = len(tokens) - 1
	}
	s.section = s.sectionFor(s.word)
	s.loaded = true
}

// sectionFor returns the index of the largest checkpoint at or before word,
// or -1. Linear scan: checkpoint counts are small next to token counts.
func (s *tokenStream) sectionFor(word int) int {
	section := -1
	for i, c := range s.checkpoints {
		if c > word {
			break
		}
		section = i
	}
	return section
}

func (s *tokenStream) invalidLocked() bool {
	return !s.loaded || len(s.tokens) == 0 || s.word < 0 || s.word >= len(s.tokens)
}

func (s *tokenStream) IsInvalid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidLocked()
}

func (s *tokenStream) IsAtStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.invalidLocked() && s.word == 0
}

func (s *tokenStream) IsAtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.invalidLocked() && s.word == len(s.tokens)-1
}

func (s *tokenStream) Completion() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidLocked() {
		return s.desired
	}
	return float64(s.word) / float64(len(s.tokens))
}

func (s *tokenStream) CurrentWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidLocked() {
		return ""
	}
	return s.tokens[s.word]
}

func (s *tokenStream) PreviousWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidLocked() || s.word == 0 {
		return ""
	}
	return s.tokens[s.word-1]
}

func (s *tokenStream) NextWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidLocked() || s.word == len(s.tokens)-1 {
		return ""
	}
	return s.tokens[s.word+1]
}

// Perform applies a motion. Fully-loaded streams never need more data, so
// NeedsLoading is always false here.
func (s *tokenStream) Perform(action Action, step int) Motion {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidLocked() {
		return Motion{}
	}

	before := s.word
	switch action {
	case ActionRewind:
		s.word = 0
	case ActionNextWord:
		if s.word < len(s.tokens)-1 {
			s.word++
		}
	case ActionPreviousStep:
		s.stepBackward(step)
	case ActionNextStep:
		s.stepForward(step)
	}

	s.section = s.sectionFor(s.word)
	return Motion{Changed: s.word != before}
}

func (s *tokenStream) stepBackward(step int) {
	if !s.sectional {
		s.word -= step
		if s.word < 0 {
			s.word = 0
		}
		return
	}

	// Mid-section goes back to the start of the current section; from a
	// section start, to the start of the prior one. Before the first
	// checkpoint, back to the document start.
	if s.section < 0 {
		s.word = 0
		return
	}
	if s.word > s.checkpoints[s.section] {
		s.word = s.checkpoints[s.section]
		return
	}
	if s.section > 0 {
		s.word = s.checkpoints[s.section-1]
		return
	}
	s.word = 0
}

func (s *tokenStream) stepForward(step int) {
	if !s.sectional {
		s.word += step
		if s.word > len(s.tokens)-1 {
			s.word = len(s.tokens) - 1
		}
		return
	}

	for _, c := range s.checkpoints {
		if c > s.word {
			s.word = c
			return
		}
	}
	s.word = len(s.tokens) - 1
}
